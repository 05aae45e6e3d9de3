package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saipavankommuri123/liveKit-backend/pkg/attendance"
	"github.com/saipavankommuri123/liveKit-backend/pkg/chat"
	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
	"github.com/saipavankommuri123/liveKit-backend/pkg/recording"
	"github.com/saipavankommuri123/liveKit-backend/pkg/token"
)

// Server wires the HTTP surface: recording lifecycle, join tokens, chat
// history, attendance, and health/metrics.
type Server struct {
	recorder   *recording.Service
	tokens     *token.Issuer
	chat       chat.History
	attendance *attendance.Store // nil when no database is configured
	router     *gin.Engine
}

func New(recorder *recording.Service, tokens *token.Issuer, chatHistory chat.History, attendanceStore *attendance.Store) *Server {
	s := &Server{
		recorder:   recorder,
		tokens:     tokens,
		chat:       chatHistory,
		attendance: attendanceStore,
		router:     gin.New(),
	}

	s.router.Use(logger.GinRequestLogger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	s.router.Use(cors.New(corsConfig))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "LiveKit backend is running.")
	})
	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/token", s.issueToken)

	s.router.POST("/start-recording", s.startRecording)
	s.router.POST("/stop-recording", s.stopRecording)
	s.router.GET("/recording-status/:roomName", s.recordingStatus)
	s.router.GET("/egress/:roomName", s.listRoomEgress)
	s.router.GET("/egress-status/:egressId", s.egressStatus)

	s.router.GET("/chat/history", s.chatHistory)
	s.router.POST("/chat/messages", s.postChatMessage)

	s.router.POST("/attendance", s.saveAttendance)
	s.router.GET("/attendance/history", s.attendanceHistory)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP listener.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
