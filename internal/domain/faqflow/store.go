package faqflow

import "context"

// ContextStore owns the per-user FAQ session markers. Implementations must
// support concurrent read-modify-write per user id and apply the idle timeout
// lazily on Get: an entry past the timeout reads as absent and is removed as
// a side effect of the read. A process-local store pins a session to the
// process that created it; replicated deployments need the shared
// implementation.
type ContextStore interface {
	// Begin marks the user as awaiting a selection.
	Begin(ctx context.Context, userID string) error
	// Touch refreshes the last-interaction timestamp of an existing active
	// context and is a no-op when none exists.
	Touch(ctx context.Context, userID string) error
	// Get returns the active context, applying expiry-on-read.
	Get(ctx context.Context, userID string) (UserContext, bool, error)
	// End removes the context.
	End(ctx context.Context, userID string) error
}
