package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
	"github.com/saipavankommuri123/liveKit-backend/pkg/recording"
)

type startRecordingRequest struct {
	RoomName string `json:"roomName"`
	Identity string `json:"identity"`
}

type stopRecordingRequest struct {
	RoomName string `json:"roomName"`
}

func (s *Server) startRecording(c *gin.Context) {
	var req startRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "roomName is required"})
		return
	}

	res, err := s.recorder.Start(c.Request.Context(), req.RoomName, req.Identity)
	if err != nil {
		logger.Error("start recording failed",
			logger.String("room", req.RoomName),
			logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to start recording"})
		return
	}

	if res.AlreadyRecording {
		c.JSON(http.StatusOK, gin.H{
			"success":            true,
			"egressId":           res.EgressID,
			"alreadyRecording":   true,
			"recordingStartedAt": res.StartedAt,
			"message":            "recording already in progress",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"egressId":           res.EgressID,
		"recordingStartedAt": res.StartedAt,
		"message":            "recording started",
	})
}

func (s *Server) stopRecording(c *gin.Context) {
	var req stopRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "roomName is required"})
		return
	}
	async := c.Query("async") == "true"

	res, err := s.recorder.Stop(c.Request.Context(), req.RoomName, async)
	switch {
	case err == nil:
		if async {
			c.JSON(http.StatusAccepted, gin.H{
				"success":  true,
				"egressId": res.EgressID,
				"message":  "stop requested, finalizing in background",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"egressId": res.EgressID,
			"duration": res.Duration,
			"message":  "recording stopped",
		})
	case errors.Is(err, recording.ErrNoActiveRecording):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no active recording for room"})
	case errors.Is(err, recording.ErrStillFinalizing):
		c.JSON(http.StatusAccepted, gin.H{"success": false, "code": "deadline_exceeded", "error": "recording is still finalizing, retry shortly"})
	case errors.Is(err, recording.ErrAlreadyEnded):
		c.JSON(http.StatusConflict, gin.H{"success": false, "code": "failed_precondition", "error": "recording already ended"})
	default:
		logger.Error("stop recording failed",
			logger.String("room", req.RoomName),
			logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to stop recording"})
	}
}

func (s *Server) recordingStatus(c *gin.Context) {
	room := c.Param("roomName")

	res, err := s.recorder.Status(c.Request.Context(), room)
	if err != nil {
		logger.Error("recording status failed",
			logger.String("room", room),
			logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query recording status"})
		return
	}

	if !res.Recording {
		c.JSON(http.StatusOK, gin.H{"isRecording": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"isRecording": true,
		"egressId":    res.EgressID,
		"startedAt":   res.StartedAt,
		"startedBy":   res.StartedBy,
		"duration":    res.Duration,
	})
}

func (s *Server) listRoomEgress(c *gin.Context) {
	room := c.Param("roomName")

	items, err := s.recorder.RoomEgress(c.Request.Context(), room)
	if err != nil {
		logger.Error("egress listing failed",
			logger.String("room", room),
			logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list egress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomName": room, "items": items})
}

func (s *Server) egressStatus(c *gin.Context) {
	id := c.Param("egressId")

	info, err := s.recorder.EgressByID(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, info)
	case errors.Is(err, recording.ErrEgressNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "egress not found"})
	default:
		logger.Error("egress status failed",
			logger.String("egress_id", id),
			logger.ErrorField(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query egress"})
	}
}
