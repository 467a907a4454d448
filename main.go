package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/satriahrh/confidant/adapters/hasher"
	chathttp "github.com/satriahrh/confidant/adapters/http"
	"github.com/satriahrh/confidant/adapters/llm"
	"github.com/satriahrh/confidant/adapters/message_broker"
	"github.com/satriahrh/confidant/adapters/speech"
	"github.com/satriahrh/confidant/adapters/tts"
	"github.com/satriahrh/confidant/adapters/websocket"
	"github.com/satriahrh/confidant/config"
	"github.com/satriahrh/confidant/domain"
	"github.com/satriahrh/confidant/usecase"
	"github.com/satriahrh/confidant/utils/log"
)

func main() {
	gotenv.Load()
	defer log.Sync()

	cfg, err := config.Load("")
	if err != nil {
		log.With().Fatal("Failed to load configuration", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		log.With().Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	geminiLlm, err := llm.NewGeminiClient(ctx, cfg.Gemini)
	if err != nil {
		log.With().Fatal("Failed to create Gemini client", zap.Error(err))
	}

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	scanner := usecase.NewSafetyScanner(cfg.Safety.Keywords, hasher.New(cfg.Safety.FingerprintSalt), broker, cfg.Safety.AlertTopic)
	composer := usecase.NewPromptComposer(cfg.Prompt.Persona, cfg.Prompt.QuestionPrefix, cfg.Prompt.ImageNote)
	svc := usecase.NewChatService(geminiLlm, scanner, composer, cfg.Chat)

	var (
		transcriber domain.Transcriber
		synthesizer domain.Synthesizer
	)
	if cfg.Voice.Enabled {
		googleSpeech, err := speech.NewGoogleSpeech(ctx, cfg.Voice)
		if err != nil {
			log.With().Fatal("Failed to create speech client", zap.Error(err))
		}
		defer googleSpeech.Close()
		googleTTS, err := tts.NewGoogleTTS(ctx, cfg.Voice)
		if err != nil {
			log.With().Fatal("Failed to create tts client", zap.Error(err))
		}
		defer googleTTS.Close()
		transcriber, synthesizer = googleSpeech, googleTTS
	}

	server := websocket.NewServer(svc, broker, cfg.Safety.AlertTopic)
	if err := server.Run(ctx); err != nil {
		log.With().Fatal("Failed to start websocket server", zap.Error(err))
	}

	chatHandler := chathttp.NewChatHandler(svc, transcriber, synthesizer)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			"Content-Length",
		},
		MaxAge: 86400,
	}))
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	e.GET("/ws", server.Handler)
	e.GET("/ws/operator", server.OperatorHandler)
	chatHandler.Register(e.Group("/api/v1"))

	logger := log.With(zap.String("addr", cfg.Server.Addr), zap.String("model", cfg.Gemini.Model))
	logger.Info("Starting server")
	logger.Info("Available endpoints")
	logger.Info("  GET  /api/v1/health              - Health check")
	logger.Info("  POST /api/v1/chat/submit         - Submit text/image, NDJSON transcript stream")
	logger.Info("  POST /api/v1/chat/undo           - Drop the last turn")
	logger.Info("  POST /api/v1/chat/retry          - Regenerate the last turn")
	if cfg.Voice.Enabled {
		logger.Info("  POST /api/v1/voice/transcribe    - Speech to text")
		logger.Info("  POST /api/v1/voice/synthesize    - Text to speech")
	}
	logger.Info("  GET  /ws                         - WebSocket chat session")
	logger.Info("  GET  /ws/operator                - WebSocket safety alert feed")

	go func() {
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
