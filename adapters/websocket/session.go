package websocket

import (
	"context"
	"encoding/json"
	"iter"
	"time"

	"github.com/satriahrh/confidant/domain"
	"github.com/satriahrh/confidant/usecase"
	"github.com/satriahrh/confidant/utils/log"
	"go.uber.org/zap"
)

// frameSender is the part of Client a chat session writes to.
type frameSender interface {
	SendMessage(message []byte) error
	SessionID() string
}

// chatSession owns the transcript of one chat connection.
type chatSession struct {
	svc        *usecase.ChatService
	out        frameSender
	transcript *domain.Transcript
}

func newChatSession(svc *usecase.ChatService, out frameSender) *chatSession {
	return &chatSession{
		svc:        svc,
		out:        out,
		transcript: domain.NewTranscript(),
	}
}

// handle runs one client action to completion.
func (s *chatSession) handle(ctx context.Context, raw []byte) {
	var a Action
	if err := json.Unmarshal(raw, &a); err != nil {
		s.sendError(ctx, "bad_request", "Invalid message", err.Error())
		return
	}

	log.WithCtx(ctx).Debug("Handling action", zap.String("action", a.Action))

	switch a.Action {
	case ActionSubmit:
		s.stream(ctx, s.svc.Submit(ctx, s.transcript, domain.Submission{Text: a.Text, Image: a.Image}))
	case ActionUndo:
		s.sendTranscript(ctx, s.svc.Undo(s.transcript).Turns(), false)
	case ActionRetry:
		snapshots, ok := s.svc.Retry(ctx, s.transcript)
		if !ok {
			s.sendTranscript(ctx, s.transcript.Turns(), false)
			return
		}
		s.stream(ctx, snapshots)
	default:
		s.sendError(ctx, "unknown_action", "Unknown action", a.Action)
	}
}

func (s *chatSession) stream(ctx context.Context, snapshots iter.Seq[[]domain.Turn]) {
	for snap := range snapshots {
		if err := s.sendTranscript(ctx, snap, s.transcript.InProgress()); err != nil {
			return
		}
	}
	s.sendTranscript(ctx, s.transcript.Turns(), false)
}

func (s *chatSession) sendTranscript(ctx context.Context, turns []domain.Turn, streaming bool) error {
	return s.send(ctx, Message{
		Type:      TypeTranscript,
		SessionID: s.out.SessionID(),
		History:   turns,
		Streaming: streaming,
	})
}

func (s *chatSession) sendError(ctx context.Context, code, message, details string) {
	s.send(ctx, Message{
		Type:      TypeError,
		SessionID: s.out.SessionID(),
		Error:     &ErrorResponse{Code: code, Message: message, Details: details},
	})
}

func (s *chatSession) send(ctx context.Context, m Message) error {
	m.Timestamp = time.Now().UTC()
	data, err := json.Marshal(m)
	if err != nil {
		log.WithCtx(ctx).Error("❌ Failed to marshal WebSocket message", zap.Error(err))
		return err
	}
	if err := s.out.SendMessage(data); err != nil {
		log.WithCtx(ctx).Warn("Failed to send WebSocket message", zap.Error(err))
		return err
	}
	return nil
}
