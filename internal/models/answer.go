package models

import "time"

type Answer struct {
	ID         int      `gorm:"primaryKey" json:"id"`
	Body       string   `gorm:"type:text;not null" json:"content"`
	QuestionID int      `gorm:"not null;index" json:"question_id"`
	Question   Question `gorm:"foreignKey:QuestionID" json:"-"`
	UserID     int      `gorm:"not null;index" json:"user_id"`
	User       User     `gorm:"foreignKey:UserID" json:"user"`

	// VoteCount mirrors the vote ledger; see Question.VoteCount.
	VoteCount int `gorm:"default:0" json:"vote_count"`

	// IsAccepted is true for at most one answer per question.
	IsAccepted bool `gorm:"default:false" json:"is_accepted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateAnswerRequest struct {
	QuestionID int    `json:"questionId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

type UpdateAnswerRequest struct {
	Content string `json:"content" binding:"required"`
}
