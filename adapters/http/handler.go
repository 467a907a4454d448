package http

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/confidant/domain"
	"github.com/satriahrh/confidant/usecase"
	"github.com/satriahrh/confidant/utils/log"
)

// MIMEApplicationNDJSON is used for streamed transcript snapshots, one JSON
// document per line.
const MIMEApplicationNDJSON = "application/x-ndjson"

type ChatHandler struct {
	chatService *usecase.ChatService
	transcriber domain.Transcriber
	synthesizer domain.Synthesizer
}

type SubmitRequest struct {
	Text    string        `json:"text"`
	Image   []byte        `json:"image,omitempty"`
	History []domain.Turn `json:"history"`
}

type HistoryRequest struct {
	History []domain.Turn `json:"history"`
}

type HistoryResponse struct {
	History []domain.Turn `json:"history"`
}

type SynthesizeRequest struct {
	Text string `json:"text"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

// NewChatHandler wires the chat endpoints. transcriber and synthesizer may be
// nil, in which case the voice endpoints are not registered.
func NewChatHandler(chatService *usecase.ChatService, transcriber domain.Transcriber, synthesizer domain.Synthesizer) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		transcriber: transcriber,
		synthesizer: synthesizer,
	}
}

// Register mounts the handler under g (normally /api/v1).
func (h *ChatHandler) Register(g *echo.Group) {
	g.GET("/health", h.HealthCheck)

	chat := g.Group("/chat")
	chat.POST("/submit", h.Submit)
	chat.POST("/undo", h.Undo)
	chat.POST("/retry", h.Retry)

	if h.transcriber != nil {
		g.POST("/voice/transcribe", h.Transcribe)
	}
	if h.synthesizer != nil {
		g.POST("/voice/synthesize", h.Synthesize)
	}
}

// Submit streams the transcript after every change while the reply is generated.
func (h *ChatHandler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	ctx := h.requestContext(c)
	t := domain.NewTranscript(req.History...)
	snapshots := h.chatService.Submit(ctx, t, domain.Submission{Text: req.Text, Image: req.Image})
	return h.stream(c, snapshots)
}

func (h *ChatHandler) Undo(c echo.Context) error {
	var req HistoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	t := h.chatService.Undo(domain.NewTranscript(req.History...))
	return c.JSON(http.StatusOK, HistoryResponse{History: t.Turns()})
}

// Retry streams like Submit, except for an empty history which is returned
// as plain JSON.
func (h *ChatHandler) Retry(c echo.Context) error {
	var req HistoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	ctx := h.requestContext(c)
	t := domain.NewTranscript(req.History...)
	snapshots, ok := h.chatService.Retry(ctx, t)
	if !ok {
		return c.JSON(http.StatusOK, HistoryResponse{History: t.Turns()})
	}
	return h.stream(c, snapshots)
}

func (h *ChatHandler) stream(c echo.Context, snapshots iter.Seq[[]domain.Turn]) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, MIMEApplicationNDJSON)
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(res)
	for snap := range snapshots {
		if err := enc.Encode(HistoryResponse{History: snap}); err != nil {
			log.WithCtx(c.Request().Context()).Warn("Client went away mid-stream", zap.Error(err))
			return nil
		}
		res.Flush()
	}
	return nil
}

// Transcribe turns an uploaded recording into text the client can submit.
func (h *ChatHandler) Transcribe(c echo.Context) error {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "audio/") && !strings.HasPrefix(contentType, echo.MIMEOctetStream) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content type. Expected audio/* or application/octet-stream")
	}

	audio, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read audio")
	}
	if len(audio) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Audio body is empty")
	}

	ctx := h.requestContext(c)
	text, err := h.transcriber.Transcribe(ctx, audio)
	if err != nil {
		log.WithCtx(ctx).Error("❌ Transcription failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to transcribe audio")
	}

	return c.JSON(http.StatusOK, TranscribeResponse{Text: text})
}

// Synthesize reads an assistant reply aloud.
func (h *ChatHandler) Synthesize(c echo.Context) error {
	var req SynthesizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Text is required")
	}

	ctx := h.requestContext(c)
	audio, err := h.synthesizer.Synthesize(ctx, req.Text)
	if err != nil {
		log.WithCtx(ctx).Error("❌ Speech synthesis failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to synthesize speech")
	}

	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

// Health check endpoint
func (h *ChatHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "confidant",
	})
}

func (h *ChatHandler) requestContext(c echo.Context) context.Context {
	ctx := log.WithRemoteAddr(c.Request().Context(), c.RealIP())
	if id, err := generateSessionID(); err == nil {
		ctx = log.WithSession(ctx, id)
	}
	return ctx
}

// generateSessionID creates a unique session identifier
func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
