package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jaychangani2005/StackIt/internal/middleware"
	"github.com/Jaychangani2005/StackIt/internal/voting"
)

type AdminHandler struct {
	votes *voting.Service
}

func NewAdminHandler(votes *voting.Service) *AdminHandler {
	return &AdminHandler{votes: votes}
}

// ReconcileScores rewrites every denormalized vote counter from the
// vote ledger (PROTECTED - admin only). This is the repair path for
// counter drift; under normal operation it is a no-op.
func (h *AdminHandler) ReconcileScores(c *gin.Context) {
	if !middleware.IsAdmin(c) {
		errorJSON(c, http.StatusForbidden, "forbidden", "Admin access required")
		return
	}

	processed, err := h.votes.ReconcileScores(c.Request.Context())
	if err != nil {
		log.Printf("score reconciliation failed after %d targets: %v", processed, err)
		errorJSON(c, http.StatusInternalServerError, "server_error", "Failed to reconcile scores")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scores reconciled successfully",
		"targets": processed,
	})
}
