package faqflow

import "time"

// Entry is a single catalog item. Position is the 1-based rank users type
// to select it.
type Entry struct {
	Position int      `json:"position"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords,omitempty"`
}

// InputKind tags the outcome of normalization.
type InputKind string

const (
	// InputSelection carries a 1-based catalog position.
	InputSelection InputKind = "selection"
	// InputCommand carries a named command.
	InputCommand InputKind = "command"
	// InputUnrecognized carries the raw text plus a reason.
	InputUnrecognized InputKind = "unrecognized"
)

// Command identifies a named menu command.
type Command string

const (
	CommandHelp   Command = "help"
	CommandExit   Command = "exit"
	CommandRelist Command = "relist"
)

// UnrecognizedReason distinguishes a numeric value outside the catalog from
// text that is not a number at all.
type UnrecognizedReason string

const (
	ReasonOutOfRange UnrecognizedReason = "out_of_range"
	ReasonNotNumber  UnrecognizedReason = "not_number"
)

// Input is the normalized form of one raw message.
type Input struct {
	Kind     InputKind
	Position int     // set for InputSelection
	Command  Command // set for InputCommand
	Raw      string  // set for InputUnrecognized
	Reason   UnrecognizedReason
	Parsed   int // the out-of-range value, set when Reason is ReasonOutOfRange
}

// ResultKind tags the outcome of handling one message.
type ResultKind string

const (
	ResultAnswer      ResultKind = "answer"
	ResultList        ResultKind = "list"
	ResultHelp        ResultKind = "help"
	ResultError       ResultKind = "error"
	ResultFallthrough ResultKind = "fallthrough"
)

// Result is returned to channel adapters. Fallthrough results carry the
// original message so the caller can route it to the retrieval pipeline.
type Result struct {
	Kind     ResultKind `json:"kind"`
	Text     string     `json:"text,omitempty"`
	Original string     `json:"original,omitempty"`
}

// UserContext marks a user as mid-flow selecting an FAQ entry.
type UserContext struct {
	Active          bool      `json:"active"`
	LastInteraction time.Time `json:"lastInteraction"`
}
