package models

import "time"

// VoteType values stored in the ledger.
const (
	VoteUp   = 1
	VoteDown = -1
)

// Vote is the ledger row recording one user's current direction on one
// target. Exactly one of QuestionID/AnswerID is set. Uniqueness per
// (user, target) is enforced by partial unique indexes created at
// startup; Postgres handles (user_id, question_id) unique where
// question_id is not null, and likewise for answers.
type Vote struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	UserID     int       `gorm:"not null;index" json:"user_id"`
	QuestionID *int      `gorm:"index" json:"question_id,omitempty"`
	AnswerID   *int      `gorm:"index" json:"answer_id,omitempty"`
	VoteType   int       `gorm:"not null" json:"vote_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type VoteRequest struct {
	VoteType string `json:"voteType" binding:"required"`
}
