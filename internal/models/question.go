package models

import "time"

type Question struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	UserID      int    `gorm:"not null;index" json:"user_id"`
	User        User   `gorm:"foreignKey:UserID" json:"user"`
	Tags        []Tag  `gorm:"many2many:question_tags" json:"tags"`

	// VoteCount is the denormalized net score (upvotes minus downvotes).
	// Only the voting service writes it, inside the same transaction as
	// the ledger row it reflects.
	VoteCount         int  `gorm:"default:0" json:"vote_count"`
	AnswerCount       int  `gorm:"default:0" json:"answer_count"`
	Views             int  `gorm:"default:0" json:"views"`
	HasAcceptedAnswer bool `gorm:"default:false" json:"has_accepted_answer"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateQuestionRequest struct {
	Title       string   `json:"title" binding:"required,max=300"`
	Description string   `json:"description" binding:"required"`
	Tags        []string `json:"tags" binding:"required,min=1"`
}

type UpdateQuestionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
