package voting

import "fmt"

type TargetKind string

const (
	TargetQuestion TargetKind = "question"
	TargetAnswer   TargetKind = "answer"
)

// Target identifies the question or answer a vote applies to.
type Target struct {
	Kind TargetKind
	ID   int
}

func QuestionTarget(id int) Target {
	return Target{Kind: TargetQuestion, ID: id}
}

func AnswerTarget(id int) Target {
	return Target{Kind: TargetAnswer, ID: id}
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%d", t.Kind, t.ID)
}
