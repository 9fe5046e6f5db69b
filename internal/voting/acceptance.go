package voting

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Jaychangani2005/StackIt/internal/models"
)

// Actor is the authenticated identity performing an acceptance.
type Actor struct {
	ID    int
	Admin bool
}

// AcceptAnswer marks the answer as the question's accepted solution.
// Only the question's author or an admin may accept. In one
// transaction every other answer of the question loses its accepted
// flag, the chosen answer gains it, and the question's summary flag is
// set, so at most one answer per question is ever accepted. Accepting a
// different answer later simply moves the flag; there is no unaccept.
func (s *Service) AcceptAnswer(ctx context.Context, actor Actor, questionID, answerID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the question row so accepts on the same question
		// serialize. Without it two concurrent accepts can each miss
		// the other's uncommitted flag and leave two answers accepted.
		var question models.Question
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&question, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: question/%d", ErrNotFound, questionID)
			}
			return err
		}

		var answer models.Answer
		if err := tx.Where("question_id = ?", questionID).First(&answer, answerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: answer/%d", ErrNotFound, answerID)
			}
			return err
		}

		if question.UserID != actor.ID && !actor.Admin {
			return fmt.Errorf("%w: only the question author may accept an answer", ErrForbidden)
		}

		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND id <> ? AND is_accepted", questionID, answerID).
			UpdateColumn("is_accepted", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Answer{}).
			Where("id = ?", answerID).
			UpdateColumn("is_accepted", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Question{}).
			Where("id = ?", questionID).
			UpdateColumn("has_accepted_answer", true).Error
	})
}
