package quiz

import "fmt"

// IssueKind categorizes a data-quality problem in a quiz.
type IssueKind string

const (
	IssueUnknownType      IssueKind = "unknown-type"
	IssueObjectiveNoOpts  IssueKind = "objective-without-options"
	IssueFreeTextWithOpts IssueKind = "free-text-with-options"
	IssueAnswerNotOption  IssueKind = "answer-not-in-options"
	IssueEmptyPrompt      IssueKind = "empty-prompt"
)

// Issue is a data-quality problem with one question. Issues are reported,
// never corrected: option presence stays authoritative.
type Issue struct {
	Index int
	Kind  IssueKind
}

func (i Issue) String() string {
	return fmt.Sprintf("question %d: %s", i.Index+1, i.Kind)
}

// Validate inspects a quiz for disagreements between type tags, option sets,
// and expected answers.
func Validate(q *Quiz) []Issue {
	if q == nil {
		return nil
	}

	var issues []Issue
	for i, question := range q.Questions {
		if question.Prompt == "" {
			issues = append(issues, Issue{Index: i, Kind: IssueEmptyPrompt})
		}

		if question.Type != "" && !question.Type.Valid() {
			issues = append(issues, Issue{Index: i, Kind: IssueUnknownType})
			continue
		}

		switch {
		case question.Type.ObjectiveTag() && !question.Objective():
			issues = append(issues, Issue{Index: i, Kind: IssueObjectiveNoOpts})
		case question.Type != "" && !question.Type.ObjectiveTag() && question.Objective():
			issues = append(issues, Issue{Index: i, Kind: IssueFreeTextWithOpts})
		}

		if question.Objective() && !hasOption(question.Options, question.Answer) {
			issues = append(issues, Issue{Index: i, Kind: IssueAnswerNotOption})
		}
	}
	return issues
}

func hasOption(options []string, answer string) bool {
	for _, o := range options {
		if Matches(o, answer) {
			return true
		}
	}
	return false
}
