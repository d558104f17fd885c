package kb

// Config holds ingestion and retrieval knobs.
type Config struct {
	MaxFileBytes   int64
	ChunkTokens    int
	ChunkOverlap   int
	TopK           int
	MinScore       float64
	VectorWeight   float64 // hybrid merge weight; lexical gets 1-VectorWeight
	MaxPreviewRune int
}

// Sanitize fills unset fields with defaults.
func (c Config) Sanitize() Config {
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = 10 << 20
	}
	if c.ChunkTokens <= 0 {
		c.ChunkTokens = 500
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.TopK <= 0 {
		c.TopK = 6
	}
	if c.VectorWeight <= 0 || c.VectorWeight > 1 {
		c.VectorWeight = 0.7
	}
	if c.MaxPreviewRune <= 0 {
		c.MaxPreviewRune = 200
	}
	return c
}
