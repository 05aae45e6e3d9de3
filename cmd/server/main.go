package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/saipavankommuri123/liveKit-backend/pkg/attendance"
	"github.com/saipavankommuri123/liveKit-backend/pkg/chat"
	"github.com/saipavankommuri123/liveKit-backend/pkg/config"
	"github.com/saipavankommuri123/liveKit-backend/pkg/logger"
	"github.com/saipavankommuri123/liveKit-backend/pkg/recording"
	"github.com/saipavankommuri123/liveKit-backend/pkg/server"
	"github.com/saipavankommuri123/liveKit-backend/pkg/token"
	"github.com/saipavankommuri123/liveKit-backend/pkg/uploader"
	"github.com/saipavankommuri123/liveKit-backend/pkg/version"
)

func main() {
	logger.Init("livekit-backend")
	logger.Info("Starting LiveKit backend", logger.String("version", version.GetVersion()))

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatal("Failed to load config", logger.ErrorField(err))
	}

	store := recording.NewStore()
	egress := recording.NewLiveKitEgress(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret)
	rooms := recording.NewLiveKitRooms(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret)

	recorder := recording.NewService(egress, rooms, store, recording.Config{
		MinActive:      cfg.MinActive(),
		MaxDuration:    cfg.MaxDuration(),
		StartTimeout:   time.Duration(cfg.Recording.StartTimeoutMS) * time.Millisecond,
		PollInterval:   time.Duration(cfg.Recording.PollIntervalMS) * time.Millisecond,
		RequestTimeout: cfg.RequestTimeout(),
		OutputDir:      cfg.Recording.OutputDir,
	})

	sweeper := recording.NewSweeper(recorder, cfg.CleanupInterval())
	sweeper.Start()
	defer sweeper.Stop()

	var attendanceStore *attendance.Store
	var enrollment token.EnrollmentChecker
	if cfg.Database.DSN != "" {
		db, err := attendance.Open(cfg.Database.DSN)
		if err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		attendanceStore = attendance.NewStore(db)
		enrollment = attendanceStore
		logger.Info("Attendance database connected")
	} else {
		logger.Warn("No database DSN configured; attendance and enrollment checks are disabled")
	}

	issuer := token.NewIssuer(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret,
		time.Duration(cfg.LiveKit.TokenTTLMinutes)*time.Minute, enrollment)

	var history chat.History
	if cfg.Redis.Addr != "" {
		redisHistory := chat.NewRedisHistory(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.ChatTTLHours)*time.Hour)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisHistory.Ping(ctx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to Redis", logger.String("addr", cfg.Redis.Addr), logger.ErrorField(err))
		}
		logger.Info("Chat history backed by Redis", logger.String("addr", cfg.Redis.Addr))
		history = redisHistory
	} else {
		logger.Warn("No Redis configured; chat history is in-memory only")
		history = chat.NewMemoryHistory()
	}

	if cfg.S3.Bucket != "" {
		s3up, err := uploader.NewS3Uploader(uploader.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
		}, cfg.Recording.OutputDir)
		if err != nil {
			logger.Fatal("Failed to initialize S3 uploader", logger.ErrorField(err))
		}
		watcher, err := uploader.NewWatcher(cfg.Recording.OutputDir, s3up)
		if err != nil {
			logger.Fatal("Failed to initialize recording watcher", logger.ErrorField(err))
		}
		go func() {
			if err := watcher.Start(context.Background()); err != nil {
				logger.Error("Recording watcher stopped", logger.ErrorField(err))
			}
		}()
		logger.Info("Uploading finished recordings to S3", logger.String("bucket", cfg.S3.Bucket))
	}

	srv := server.New(recorder, issuer, history, attendanceStore)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("HTTP server listening", logger.String("addr", addr))
	if err := srv.Run(addr); err != nil {
		logger.Fatal("HTTP server exited", logger.ErrorField(err))
	}
}
