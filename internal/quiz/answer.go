package quiz

import "strings"

// NotAnswered is recorded for questions the user left blank.
const NotAnswered = "Not Answered"

// LongAnswerWords is the expected-answer word count above which a free-text
// question is graded as a long answer.
const LongAnswerWords = 20

// Matches compares a user's answer with the expected answer.
//
// Normalization rules:
// - Leading and trailing whitespace is trimmed
// - Comparison is case-insensitive
func Matches(given, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(expected))
}

// Answered reports whether a stored value counts as an answer. The empty
// string and the NotAnswered sentinel do not.
func Answered(value string) bool {
	return value != "" && value != NotAnswered
}

// AnswerKind classifies a free-text question for grading by the length of
// its expected answer, not by its type tag.
func AnswerKind(expected string) Type {
	if len(strings.Fields(expected)) > LongAnswerWords {
		return TypeLongAnswer
	}
	return TypeShortAnswer
}
