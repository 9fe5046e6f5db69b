package handlers

import (
	"gorm.io/gorm"

	"github.com/Jaychangani2005/StackIt/internal/voting"
)

// Handler combines all handler types
type Handler struct {
	Question *QuestionHandler
	Answer   *AnswerHandler
	User     *UserHandler
	Admin    *AdminHandler
}

// NewHandler creates a unified handler with all sub-handlers sharing
// one voting service.
func NewHandler(db *gorm.DB) *Handler {
	votes := voting.NewService(db)

	return &Handler{
		Question: NewQuestionHandler(db, votes),
		Answer:   NewAnswerHandler(db, votes),
		User:     NewUserHandler(db),
		Admin:    NewAdminHandler(votes),
	}
}
