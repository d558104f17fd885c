package chat

import "time"

// DefaultExplainWindow bounds how long a previous answer stays eligible for
// "explain more" follow-ups.
const DefaultExplainWindow = 10 * time.Minute

// Config holds runtime knobs for the chat orchestrator.
type Config struct {
	Model            string
	Temperature      float32
	MaxContextChunks int
	ExplainWindow    time.Duration
	GreetingWords    []string
}

// Sanitize fills zero values with defaults.
func (c Config) Sanitize() Config {
	if c.MaxContextChunks <= 0 {
		c.MaxContextChunks = 5
	}
	if c.ExplainWindow <= 0 {
		c.ExplainWindow = DefaultExplainWindow
	}
	if len(c.GreetingWords) == 0 {
		c.GreetingWords = []string{"hi", "hello", "halo", "hai", "selamat pagi", "selamat siang", "selamat malam"}
	}
	return c
}
