package tokenlimit

import (
	"math"
	"unicode"
)

const (
	cjkCharsPerToken   = 1.5
	latinCharsPerToken = 4
	otherCharsPerToken = 4
)

// Estimate is the per-class breakdown behind EstimateTokens.
type Estimate struct {
	CJKChars   int
	LatinChars int
	OtherChars int
	Tokens     int
}

// EstimateTokens is a conservative stand-in for a real tokenizer: it
// overcounts rather than undercounts so the budget check errs on the safe side.
func EstimateTokens(text string) int {
	return Breakdown(text).Tokens
}

// Breakdown classifies every rune of text and derives the token estimate.
func Breakdown(text string) Estimate {
	var e Estimate
	for _, r := range text {
		switch {
		case isCJK(r):
			e.CJKChars++
		case isLatin(r):
			e.LatinChars++
		default:
			e.OtherChars++
		}
	}
	e.Tokens = ceilDiv(e.CJKChars, cjkCharsPerToken) +
		ceilDiv(e.LatinChars, latinCharsPerToken) +
		ceilDiv(e.OtherChars, otherCharsPerToken)
	return e
}

func ceilDiv(n int, per float64) int {
	if n == 0 {
		return 0
	}
	return int(math.Ceil(float64(n) / per))
}

// CJK unified ideographs, basic block.
func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FA5
}

func isLatin(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	}
	switch r {
	case '.', ',', '!', '?', ';', ':', '\'', '"', '(', ')', '[', ']', '{', '}',
		'-', '_', '=', '+', '*', '&', '^', '%', '$', '#', '@', '~', '`':
		return true
	}
	return false
}
