package domain

import "errors"

// Control signals shared by the entropy engine and belief tracker. Both are
// expected, user-visible outcomes rather than failures: ErrNoCandidates
// drives the "treat as new animal" path, ErrQuestionsExhausted the "guess
// despite low confidence" path.
var (
	ErrNoCandidates       = errors.New("no candidate animals remain")
	ErrQuestionsExhausted = errors.New("no further discriminating question")
)
