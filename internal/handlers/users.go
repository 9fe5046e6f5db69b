package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Jaychangani2005/StackIt/internal/middleware"
	"github.com/Jaychangani2005/StackIt/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetUser returns a user's public profile
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"name":       user.Username,
		"reputation": user.Reputation,
		"createdAt":  user.CreatedAt,
	})
}

// GetMe returns the current authenticated user
func (h *UserHandler) GetMe(c *gin.Context) {
	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var user models.User
	if err := h.db.First(&user, uid).Error; err != nil {
		errorJSON(c, http.StatusNotFound, "not_found", "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"name":       user.Username,
		"email":      user.Email,
		"reputation": user.Reputation,
		"role":       user.Role,
		"createdAt":  user.CreatedAt,
	})
}

// UpdateMe updates the current user's profile
func (h *UserHandler) UpdateMe(c *gin.Context) {
	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var input models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_argument", "Name is required")
		return
	}

	err := h.db.Model(&models.User{}).Where("id = ?", uid).Update("username", input.Username).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		errorJSON(c, http.StatusBadRequest, "invalid_argument", "Username already taken")
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// GetMyQuestions returns the current user's questions
func (h *UserHandler) GetMyQuestions(c *gin.Context) {
	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	page, limit := pageParams(c)

	var questions []models.Question
	if err := h.db.Preload("User").Preload("Tags").
		Where("user_id = ?", uid).
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&questions).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to fetch questions")
		return
	}

	responses := make([]gin.H, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, questionResponse(q, nil))
	}

	c.JSON(http.StatusOK, responses)
}

// GetMyAnswers returns the current user's answers with their questions
func (h *UserHandler) GetMyAnswers(c *gin.Context) {
	uid, ok := middleware.CurrentUser(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	page, limit := pageParams(c)

	var answers []models.Answer
	if err := h.db.Preload("Question").
		Where("user_id = ?", uid).
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&answers).Error; err != nil {
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to fetch answers")
		return
	}

	responses := make([]gin.H, 0, len(answers))
	for _, a := range answers {
		responses = append(responses, gin.H{
			"id":         a.ID,
			"content":    a.Body,
			"votes":      a.VoteCount,
			"isAccepted": a.IsAccepted,
			"createdAt":  a.CreatedAt,
			"question": gin.H{
				"id":    a.Question.ID,
				"title": a.Question.Title,
			},
		})
	}

	c.JSON(http.StatusOK, responses)
}
