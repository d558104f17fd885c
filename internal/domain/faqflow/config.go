package faqflow

import "time"

// DefaultTimeout is the idle window after which a session expires.
const DefaultTimeout = 300 * time.Second

// Config holds runtime knobs for the FAQ flow.
type Config struct {
	Timeout        time.Duration
	MaxSuggestions int
	MenuTriggers   []string
}

// Sanitize fills unset fields with defaults.
func (c Config) Sanitize() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = 3
	}
	if len(c.MenuTriggers) == 0 {
		c.MenuTriggers = []string{"menu faq", "faq", "pertanyaan umum", "daftar pertanyaan"}
	}
	return c
}
