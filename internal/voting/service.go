package voting

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Jaychangani2005/StackIt/internal/models"
)

var (
	ErrNotFound         = errors.New("target not found")
	ErrForbidden        = errors.New("not allowed")
	ErrInvalidDirection = errors.New("invalid vote direction")
	ErrConflict         = errors.New("concurrent vote conflict")
)

// Service owns the vote ledger, the denormalized score counters and the
// answer acceptance state. All mutations go through it; nothing else
// writes votes, vote_count, is_accepted or has_accepted_answer.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// VoteResult is the definitive state after a vote request: the voter's
// stored direction (None when the vote was retracted) and the target's
// new net score.
type VoteResult struct {
	Direction Direction
	Score     int
}

// CastVote applies the decision table in Resolve to the voter's ledger
// row for the target, inside one transaction with the score update.
func (s *Service) CastVote(ctx context.Context, voterID int, target Target, requested Direction) (VoteResult, error) {
	if requested != Up && requested != Down {
		return VoteResult{}, fmt.Errorf("%w: %q", ErrInvalidDirection, requested)
	}

	result, err := s.castVote(ctx, voterID, target, requested)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race against the same voter's own first vote on this
		// target. The ledger row exists now, so a second pass sees it
		// and resolves the toggle/switch normally.
		result, err = s.castVote(ctx, voterID, target, requested)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return VoteResult{}, fmt.Errorf("%w: %s", ErrConflict, target)
		}
	}
	return result, err
}

func (s *Service) castVote(ctx context.Context, voterID int, target Target, requested Direction) (VoteResult, error) {
	var result VoteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := targetExists(tx, target); err != nil {
			return err
		}

		stored := None
		var existing models.Vote
		err := ledgerScope(tx, voterID, target).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&existing).Error
		switch {
		case err == nil:
			stored = directionFromValue(existing.VoteType)
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first vote on this target
		default:
			return err
		}

		outcome := Resolve(stored, requested)

		switch {
		case stored == None:
			vote := models.Vote{UserID: voterID, VoteType: outcome.Stored.Value()}
			if target.Kind == TargetAnswer {
				vote.AnswerID = &target.ID
			} else {
				vote.QuestionID = &target.ID
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
		case outcome.Stored == None:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		default:
			if err := tx.Model(&existing).UpdateColumn("vote_type", outcome.Stored.Value()).Error; err != nil {
				return err
			}
		}

		score, err := applyDelta(tx, target, outcome.Delta)
		if err != nil {
			return err
		}
		result = VoteResult{Direction: outcome.Stored, Score: score}
		return nil
	})
	return result, err
}

// UserVote returns the voter's current direction on the target, None if
// no ledger row exists.
func (s *Service) UserVote(ctx context.Context, voterID int, target Target) (Direction, error) {
	var vote models.Vote
	err := ledgerScope(s.db.WithContext(ctx), voterID, target).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return None, nil
	}
	if err != nil {
		return None, err
	}
	return directionFromValue(vote.VoteType), nil
}

// Recompute derives the target's score from the ledger and rewrites the
// denormalized counter to that value. The ledger is the source of
// truth; this is the repair path for counter drift.
func (s *Service) Recompute(ctx context.Context, target Target) (int, error) {
	var score int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var up, down int64
		col := targetColumn(target)
		if err := tx.Model(&models.Vote{}).Where(col+" = ? AND vote_type = ?", target.ID, models.VoteUp).Count(&up).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Vote{}).Where(col+" = ? AND vote_type = ?", target.ID, models.VoteDown).Count(&down).Error; err != nil {
			return err
		}
		score = int(up - down)

		res := tx.Model(targetModel(target)).Where("id = ?", target.ID).UpdateColumn("vote_count", score)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, target)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}

// ReconcileScores recomputes every question and answer counter from the
// ledger and returns how many targets were processed.
func (s *Service) ReconcileScores(ctx context.Context) (int, error) {
	processed := 0

	var questionIDs []int
	if err := s.db.WithContext(ctx).Model(&models.Question{}).Pluck("id", &questionIDs).Error; err != nil {
		return processed, err
	}
	for _, id := range questionIDs {
		if _, err := s.Recompute(ctx, QuestionTarget(id)); err != nil {
			return processed, err
		}
		processed++
	}

	var answerIDs []int
	if err := s.db.WithContext(ctx).Model(&models.Answer{}).Pluck("id", &answerIDs).Error; err != nil {
		return processed, err
	}
	for _, id := range answerIDs {
		if _, err := s.Recompute(ctx, AnswerTarget(id)); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// applyDelta adds delta to the target's counter with a single atomic
// UPDATE and returns the new value. Must only be called from a
// transaction that also wrote the matching ledger change.
func applyDelta(tx *gorm.DB, target Target, delta int) (int, error) {
	res := tx.Model(targetModel(target)).Where("id = ?", target.ID).
		UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, target)
	}

	var score int
	if err := tx.Model(targetModel(target)).Select("vote_count").Where("id = ?", target.ID).Scan(&score).Error; err != nil {
		return 0, err
	}
	return score, nil
}

func targetExists(tx *gorm.DB, target Target) error {
	var n int64
	if err := tx.Model(targetModel(target)).Where("id = ?", target.ID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	return nil
}

func ledgerScope(tx *gorm.DB, voterID int, target Target) *gorm.DB {
	return tx.Model(&models.Vote{}).
		Where("user_id = ?", voterID).
		Where(targetColumn(target)+" = ?", target.ID)
}

func targetModel(target Target) any {
	if target.Kind == TargetAnswer {
		return &models.Answer{}
	}
	return &models.Question{}
}

func targetColumn(target Target) string {
	if target.Kind == TargetAnswer {
		return "answer_id"
	}
	return "question_id"
}
