package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenlens/greenlens/internal/agent"
	"github.com/greenlens/greenlens/internal/common"
)

// processReceiptRequest is the receipt-processing request shape. ImageBytes
// is base64 by virtue of encoding/json's []byte handling.
type processReceiptRequest struct {
	UserID     string `json:"userId"`
	ImageBytes []byte `json:"imageBytes"`
}

type chatRequest struct {
	UserID       string `json:"userId"`
	Message      string `json:"message"`
	AttachmentID string `json:"attachmentId,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) processReceipt(c *gin.Context) {
	var req processReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "VALIDATION"})
		return
	}

	result, err := s.receipts.Process(c.Request.Context(), req.UserID, req.ImageBytes)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "VALIDATION"})
		return
	}
	if req.UserID == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and message are required", "code": "VALIDATION"})
		return
	}

	chatAgent, err := s.agentFor()
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := chatAgent.Turn(c.Request.Context(), agent.Request{
		UserID:       req.UserID,
		Message:      req.Message,
		AttachmentID: req.AttachmentID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": result.Reply, "toolsUsed": result.ToolsUsed})
}

// writeError maps the error taxonomy onto HTTP statuses and a structured
// error object.
func (s *Server) writeError(c *gin.Context, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, common.ErrValidation):
		status, code = http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, common.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, common.ErrIncompleteData):
		status, code = http.StatusUnprocessableEntity, "INCOMPLETE_DATA"
	case errors.Is(err, common.ErrExternalService):
		status, code = http.StatusBadGateway, "EXTERNAL_SERVICE"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL"
	}

	if status >= http.StatusInternalServerError {
		common.LogError(err, "request failed", common.Fields{"path": c.FullPath()})
	}

	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
