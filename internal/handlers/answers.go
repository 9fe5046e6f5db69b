package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Jaychangani2005/StackIt/internal/middleware"
	"github.com/Jaychangani2005/StackIt/internal/models"
	"github.com/Jaychangani2005/StackIt/internal/voting"
)

type AnswerHandler struct {
	db    *gorm.DB
	votes *voting.Service
}

func NewAnswerHandler(db *gorm.DB, votes *voting.Service) *AnswerHandler {
	return &AnswerHandler{db: db, votes: votes}
}

func answerResponse(a models.Answer, userVote any) gin.H {
	return gin.H{
		"id":         a.ID,
		"content":    a.Body,
		"author":     authorJSON(a.User),
		"votes":      a.VoteCount,
		"isAccepted": a.IsAccepted,
		"createdAt":  a.CreatedAt,
		"userVote":   userVote,
	}
}

// GetAnswers returns all answers of a question, accepted first, then by
// score.
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var n int64
	if err := h.db.Model(&models.Question{}).Where("id = ?", questionID).Count(&n).Error; err != nil || n == 0 {
		errorJSON(c, http.StatusNotFound, "not_found", "Question not found")
		return
	}

	var answers []models.Answer
	if err := h.db.Preload("User").
		Where("question_id = ?", questionID).
		Order("is_accepted DESC, vote_count DESC, created_at ASC").
		Find(&answers).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to fetch answers")
		return
	}

	userVotes := h.answerVotes(c, answers)

	// Return empty array, not null
	responses := make([]gin.H, 0, len(answers))
	for _, a := range answers {
		var userVote any
		if v, ok := userVotes[a.ID]; ok {
			userVote = v
		}
		responses = append(responses, answerResponse(a, userVote))
	}

	c.JSON(http.StatusOK, responses)
}

func (h *AnswerHandler) answerVotes(c *gin.Context, answers []models.Answer) map[int]string {
	byAnswer := make(map[int]string)

	uid, ok := middleware.CurrentUser(c)
	if !ok || len(answers) == 0 {
		return byAnswer
	}

	ids := make([]int, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.ID)
	}

	var votes []models.Vote
	if err := h.db.Where("user_id = ? AND answer_id IN ?", uid, ids).Find(&votes).Error; err != nil {
		log.Printf("failed to load answer votes for user %d: %v", uid, err)
		return byAnswer
	}
	for _, v := range votes {
		if v.AnswerID != nil {
			byAnswer[*v.AnswerID] = voteLabel(v.VoteType)
		}
	}
	return byAnswer
}

// CreateAnswer posts a new answer on a question (PROTECTED)
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	var input models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_argument", "Question ID and content are required")
		return
	}

	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	answer := models.Answer{
		Body:       input.Content,
		QuestionID: input.QuestionID,
		UserID:     uid,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Question{}).Where("id = ?", input.QuestionID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Create(&answer).Error; err != nil {
			return err
		}
		return tx.Model(&models.Question{}).Where("id = ?", input.QuestionID).
			UpdateColumn("answer_count", gorm.Expr("answer_count + 1")).Error
	})
	if err == gorm.ErrRecordNotFound {
		errorJSON(c, http.StatusNotFound, "not_found", "Question not found")
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to create answer")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Answer created successfully",
		"answerId": answer.ID,
	})
}

// UpdateAnswer edits an answer's content (PROTECTED - owner only)
func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var input models.UpdateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_argument", "Content is required")
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "Answer not found")
		return
	}

	if answer.UserID != uid {
		errorJSON(c, http.StatusForbidden, "forbidden", "You can only edit your own answers")
		return
	}

	answer.Body = input.Content
	if err := h.db.Save(&answer).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to update answer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer updated successfully"})
}

// DeleteAnswer deletes an answer and its votes (PROTECTED - owner or
// admin). Deleting the accepted answer clears the question's summary
// flag to keep the acceptance invariant.
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "Answer not found")
		return
	}

	if answer.UserID != uid && !middleware.IsAdmin(c) {
		errorJSON(c, http.StatusForbidden, "forbidden", "You can only delete your own answers")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("answer_id = ?", answer.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&answer).Error; err != nil {
			return err
		}
		if answer.IsAccepted {
			if err := tx.Model(&models.Question{}).Where("id = ?", answer.QuestionID).
				UpdateColumn("has_accepted_answer", false).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Question{}).Where("id = ?", answer.QuestionID).
			UpdateColumn("answer_count", gorm.Expr("answer_count - 1")).Error
	})
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to delete answer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}

// VoteAnswer applies a toggle-or-switch vote to an answer (PROTECTED)
// and returns the definitive new state.
func (h *AnswerHandler) VoteAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_argument", `voteType must be "up" or "down"`)
		return
	}

	dir, err := voting.ParseDirection(input.VoteType)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_argument", `voteType must be "up" or "down"`)
		return
	}

	result, err := h.votes.CastVote(c.Request.Context(), uid, voting.AnswerTarget(id), dir)
	if err != nil {
		votingError(c, err, "voter="+strconv.Itoa(uid)+" target=answer/"+strconv.Itoa(id)+" direction="+input.VoteType)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userVote": voteValue(result.Direction),
		"votes":    result.Score,
	})
}
