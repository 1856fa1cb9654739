package quiz

// Quiz is an ordered set of questions for one session. It is treated as
// immutable once a session has started on it.
type Quiz struct {
	// ID identifies the quiz on the backend. Answers are persisted under it.
	ID string `json:"quiz_id"`

	// Topic is the human-readable label the quiz was generated for.
	Topic string `json:"topic"`

	Questions []Question `json:"questions"`
}

// Len returns the number of questions.
func (q *Quiz) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Questions)
}

// Question is a single quiz item.
type Question struct {
	// Prompt is the question text shown to the user.
	Prompt string `json:"question"`

	// Type is the generator's classification. It may disagree with Options
	// on malformed input; Objective is authoritative for branching.
	Type Type `json:"type,omitempty"`

	// Answer is the canonical expected answer. For objective questions it
	// is the text of the correct option.
	Answer string `json:"answer"`

	// Options holds the candidate answers for objective questions.
	// Empty for free-text questions.
	Options []string `json:"options,omitempty"`
}

// Objective reports whether the question has a closed option set.
func (q Question) Objective() bool {
	return len(q.Options) > 0
}

// Type tags the kind of question the generator intended.
type Type string

const (
	TypeMultipleChoice Type = "multiple_choice"
	TypeTrueFalse      Type = "true_false"
	TypeShortAnswer    Type = "short_answer"
	TypeLongAnswer     Type = "long_answer"
)

// Valid reports whether t is one of the known type tags.
func (t Type) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeLongAnswer:
		return true
	}
	return false
}

// ObjectiveTag reports whether the tag names an option-based question.
func (t Type) ObjectiveTag() bool {
	return t == TypeMultipleChoice || t == TypeTrueFalse
}
