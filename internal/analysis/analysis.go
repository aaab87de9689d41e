package analysis

// Token represents a single token produced by an analyzer.
type Token struct {
	Term      string `json:"term"`
	Rule      string `json:"rule,omitempty"`
	Position  int    `json:"position"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
}

// Analyzer processes text into a stream of tokens.
// Implementations MUST be safe for concurrent use.
type Analyzer interface {
	// Analyze tokenizes the input text and returns tokens with positions.
	Analyze(field string, text string) []Token
}
