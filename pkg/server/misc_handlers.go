package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saipavankommuri123/liveKit-backend/pkg/attendance"
	"github.com/saipavankommuri123/liveKit-backend/pkg/chat"
	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
	"github.com/saipavankommuri123/liveKit-backend/pkg/token"
)

func (s *Server) issueToken(c *gin.Context) {
	var req token.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	jwt, err := s.tokens.Issue(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"token": jwt})
	case errors.Is(err, token.ErrMissingFields), errors.Is(err, token.ErrMissingEnrollmentInfo):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, token.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, gin.H{"error": "student is not enrolled in this course"})
	case errors.Is(err, token.ErrEnrollmentUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "enrollment verification is unavailable"})
	default:
		logger.Error("token issuance failed",
			logger.String("room", req.Room),
			logger.String("identity", req.Identity),
			logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
	}
}

type postMessageRequest struct {
	RoomName       string            `json:"roomName"`
	SenderIdentity string            `json:"senderIdentity"`
	SenderName     string            `json:"senderName"`
	Text           string            `json:"text"`
	Attachments    []chat.Attachment `json:"attachments"`
}

func (s *Server) chatHistory(c *gin.Context) {
	room := c.Query("roomName")
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomName is required"})
		return
	}

	msgs, err := s.chat.Messages(c.Request.Context(), room)
	if err != nil {
		logger.Error("chat history lookup failed",
			logger.String("room", room),
			logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomName": room, "messages": msgs})
}

func (s *Server) postChatMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.RoomName == "" || req.SenderIdentity == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomName and senderIdentity are required"})
		return
	}
	if req.Text == "" && len(chat.NormalizeAttachments(req.Attachments)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message needs text or at least one attachment"})
		return
	}

	msg := chat.NewMessage(req.RoomName, req.SenderIdentity, req.SenderName, req.Text, req.Attachments)
	if err := s.chat.Append(c.Request.Context(), msg); err != nil {
		logger.Error("chat append failed",
			logger.String("room", req.RoomName),
			logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (s *Server) saveAttendance(c *gin.Context) {
	if s.attendance == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attendance storage is not configured"})
		return
	}

	var payload attendance.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := s.attendance.Save(c.Request.Context(), payload)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, attendance.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId and roomName are required"})
	default:
		logger.Error("attendance save failed",
			logger.String("session_id", payload.SessionID),
			logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save attendance"})
	}
}

func (s *Server) attendanceHistory(c *gin.Context) {
	if s.attendance == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attendance storage is not configured"})
		return
	}

	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}

	rec, err := s.attendance.Latest(c.Request.Context(), sessionID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, rec)
	case errors.Is(err, attendance.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no attendance recorded for session"})
	default:
		logger.Error("attendance lookup failed",
			logger.String("session_id", sessionID),
			logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load attendance"})
	}
}
