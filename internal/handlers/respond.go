package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Jaychangani2005/StackIt/internal/models"
	"github.com/Jaychangani2005/StackIt/internal/voting"
)

// errorJSON writes the structured error body: a machine-readable code
// and a human-readable message.
func errorJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}

// votingError maps the voting service's sentinel errors onto HTTP
// responses. Unexpected errors are logged with enough context to
// reproduce and surface as a generic 500.
func votingError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, voting.ErrNotFound):
		errorJSON(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, voting.ErrForbidden):
		errorJSON(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, voting.ErrInvalidDirection):
		errorJSON(c, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, voting.ErrConflict):
		errorJSON(c, http.StatusConflict, "conflict", "Concurrent vote conflict, please retry")
	default:
		log.Printf("voting error (%s): %v", context, err)
		errorJSON(c, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		errorJSON(c, http.StatusBadRequest, "invalid_argument", "Invalid "+name)
		return 0, false
	}
	return id, true
}

// voteValue renders a stored direction for JSON: "up", "down" or null.
func voteValue(d voting.Direction) any {
	if d == voting.None {
		return nil
	}
	return string(d)
}

func voteLabel(voteType int) string {
	if voteType == models.VoteUp {
		return "up"
	}
	return "down"
}

func authorJSON(u models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"name":       u.Username,
		"reputation": u.Reputation,
	}
}

func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
