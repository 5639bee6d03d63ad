package domain

import "fmt"

// Answer is the ternary value stored in the answer matrix and supplied by
// players. An absent matrix entry is distinct from an explicit AnswerUnknown:
// absent means "never recorded", AnswerUnknown means "recorded as don't-know".
type Answer string

const (
	AnswerYes     Answer = "yes"
	AnswerNo      Answer = "no"
	AnswerUnknown Answer = "unknown"
)

func ValidAnswer(a string) bool {
	switch Answer(a) {
	case AnswerYes, AnswerNo, AnswerUnknown:
		return true
	}
	return false
}

// ParseAnswer normalizes free-form player input. "maybe" and "don't know"
// map to AnswerUnknown.
func ParseAnswer(s string) (Answer, error) {
	switch s {
	case "yes", "y":
		return AnswerYes, nil
	case "no", "n":
		return AnswerNo, nil
	case "maybe", "m", "unknown", "dunno", "don't know":
		return AnswerUnknown, nil
	}
	return "", fmt.Errorf("unrecognized answer %q", s)
}

// Known reports whether the answer carries information.
func (a Answer) Known() bool {
	return a == AnswerYes || a == AnswerNo
}
