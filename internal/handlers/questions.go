package handlers

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Jaychangani2005/StackIt/internal/middleware"
	"github.com/Jaychangani2005/StackIt/internal/models"
	"github.com/Jaychangani2005/StackIt/internal/voting"
)

type QuestionHandler struct {
	db    *gorm.DB
	votes *voting.Service
}

func NewQuestionHandler(db *gorm.DB, votes *voting.Service) *QuestionHandler {
	return &QuestionHandler{db: db, votes: votes}
}

func questionResponse(q models.Question, userVote any) gin.H {
	tags := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		tags = append(tags, t.Name)
	}

	return gin.H{
		"id":                q.ID,
		"title":             q.Title,
		"description":       q.Description,
		"tags":              tags,
		"author":            authorJSON(q.User),
		"votes":             q.VoteCount,
		"answers":           q.AnswerCount,
		"views":             q.Views,
		"createdAt":         q.CreatedAt,
		"hasAcceptedAnswer": q.HasAcceptedAnswer,
		"userVote":          userVote,
	}
}

// questionVotes returns the caller's current direction per question id.
func (h *QuestionHandler) questionVotes(c *gin.Context, ids []int) map[int]string {
	byQuestion := make(map[int]string)

	uid, ok := middleware.CurrentUser(c)
	if !ok || len(ids) == 0 {
		return byQuestion
	}

	var votes []models.Vote
	if err := h.db.Where("user_id = ? AND question_id IN ?", uid, ids).Find(&votes).Error; err != nil {
		log.Printf("failed to load question votes for user %d: %v", uid, err)
		return byQuestion
	}
	for _, v := range votes {
		if v.QuestionID != nil {
			byQuestion[*v.QuestionID] = voteLabel(v.VoteType)
		}
	}
	return byQuestion
}

// GetQuestions returns a paginated question list with sort, filter and
// search support.
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	page, limit := pageParams(c)
	search := c.Query("search")
	filter := c.DefaultQuery("filter", "all")
	sort := c.DefaultQuery("sort", "newest")

	scope := func(db *gorm.DB) *gorm.DB {
		switch filter {
		case "unanswered":
			db = db.Where("answer_count = 0")
		case "solved":
			db = db.Where("has_accepted_answer = ?", true)
		}
		if search != "" {
			pattern := "%" + search + "%"
			db = db.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
		}
		return db
	}

	var total int64
	if err := h.db.Model(&models.Question{}).Scopes(scope).Count(&total).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to fetch questions")
		return
	}

	var order string
	switch sort {
	case "votes":
		order = "vote_count DESC"
	case "answers":
		order = "answer_count DESC"
	case "views":
		order = "views DESC"
	case "oldest":
		order = "created_at ASC"
	default: // newest
		order = "created_at DESC"
	}

	var questions []models.Question
	if err := h.db.Scopes(scope).
		Preload("User").Preload("Tags").
		Order(order).
		Limit(limit).Offset((page - 1) * limit).
		Find(&questions).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to fetch questions")
		return
	}

	ids := make([]int, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	userVotes := h.questionVotes(c, ids)

	// Return empty array, not null
	responses := make([]gin.H, 0, len(questions))
	for _, q := range questions {
		var userVote any
		if v, ok := userVotes[q.ID]; ok {
			userVote = v
		}
		responses = append(responses, questionResponse(q, userVote))
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": responses,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// GetQuestion returns a single question and counts the view.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var question models.Question
	if err := h.db.Preload("User").Preload("Tags").First(&question, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "Question not found")
		return
	}

	if err := h.db.Model(&question).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		log.Printf("failed to count view on question %d: %v", id, err)
	} else {
		question.Views++
	}

	var userVote any
	if uid, authed := middleware.CurrentUser(c); authed {
		if dir, err := h.votes.UserVote(c.Request.Context(), uid, voting.QuestionTarget(id)); err == nil {
			userVote = voteValue(dir)
		}
	}

	c.JSON(http.StatusOK, questionResponse(question, userVote))
}

func upsertTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		var tag models.Tag
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// CreateQuestion creates a new question with its tags (PROTECTED)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_argument", "Title, description, and tags are required")
		return
	}

	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	question := models.Question{
		Title:       input.Title,
		Description: input.Description,
		UserID:      uid,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		tags, err := upsertTags(tx, input.Tags)
		if err != nil {
			return err
		}
		return tx.Model(&question).Association("Tags").Replace(&tags)
	})
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to create question")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Question created successfully",
		"questionId": question.ID,
	})
}

// UpdateQuestion updates an existing question (PROTECTED - requires ownership)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var input models.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	var question models.Question
	if err := h.db.First(&question, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "Question not found")
		return
	}

	if question.UserID != uid {
		errorJSON(c, http.StatusForbidden, "forbidden", "You can only edit your own questions")
		return
	}

	if input.Title != "" {
		question.Title = input.Title
	}
	if input.Description != "" {
		question.Description = input.Description
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&question).Error; err != nil {
			return err
		}
		if input.Tags == nil {
			return nil
		}
		tags, err := upsertTags(tx, input.Tags)
		if err != nil {
			return err
		}
		return tx.Model(&question).Association("Tags").Replace(&tags)
	})
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to update question")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question updated successfully"})
}

// DeleteQuestion deletes a question, its answers and every vote
// referencing either (PROTECTED - owner or admin)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var question models.Question
	if err := h.db.First(&question, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "Question not found")
		return
	}

	if question.UserID != uid && !middleware.IsAdmin(c) {
		errorJSON(c, http.StatusForbidden, "forbidden", "You can only delete your own questions")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		answerIDs := tx.Model(&models.Answer{}).Select("id").Where("question_id = ?", id)
		if err := tx.Where("answer_id IN (?)", answerIDs).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&question).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to delete question")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// VoteQuestion applies a toggle-or-switch vote to a question
// (PROTECTED) and returns the definitive new state.
func (h *QuestionHandler) VoteQuestion(c *gin.Context) {
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

	result, err := h.votes.CastVote(c.Request.Context(), uid, voting.QuestionTarget(id), dir)
	if err != nil {
		votingError(c, err, "voter="+strconv.Itoa(uid)+" target=question/"+strconv.Itoa(id)+" direction="+input.VoteType)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userVote": voteValue(result.Direction),
		"votes":    result.Score,
	})
}

// AcceptAnswer marks an answer as accepted (PROTECTED - question author
// or admin)
func (h *QuestionHandler) AcceptAnswer(c *gin.Context) {
	questionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	answerID, ok := pathID(c, "answerId")
	if !ok {
		return
	}

	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	actor := voting.Actor{ID: uid, Admin: middleware.IsAdmin(c)}
	if err := h.votes.AcceptAnswer(c.Request.Context(), actor, questionID, answerID); err != nil {
		votingError(c, err, "actor="+strconv.Itoa(uid)+" question="+strconv.Itoa(questionID)+" answer="+strconv.Itoa(answerID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Answer accepted successfully",
		"acceptedAnswerId": answerID,
	})
}
