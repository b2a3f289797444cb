package segmenter

import "unicode/utf8"

// DefaultCharsPerToken is the character-to-token calibration constant.
// It is not derived from any particular tokenizer; treat it as a tuning
// parameter, not a contract.
const DefaultCharsPerToken = 4

// TokenEstimator estimates the token count of a piece of text.
//
// The pipeline ships with a cheap character-length proxy. Keeping the
// estimator behind this interface lets a real subword tokenizer be
// substituted without touching the chunk-size logic.
type TokenEstimator interface {
	// Estimate returns the estimated token count for text.
	Estimate(text string) int
}

// CharRatioEstimator estimates tokens as character count divided by a
// fixed ratio, rounded up. It is deterministic and fast, and explicitly
// approximate.
type CharRatioEstimator struct {
	// CharsPerToken is the divisor. Values below 1 fall back to the
	// default.
	CharsPerToken int
}

// Estimate returns ceil(len(text) / CharsPerToken) counted in runes.
func (e CharRatioEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	ratio := e.CharsPerToken
	if ratio < 1 {
		ratio = DefaultCharsPerToken
	}
	runes := utf8.RuneCountInString(text)
	return (runes + ratio - 1) / ratio
}
