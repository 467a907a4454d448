package websocket

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/satriahrh/confidant/domain"
	"github.com/satriahrh/confidant/usecase"
	"github.com/satriahrh/confidant/utils/log"
	"go.uber.org/zap"
)

type Server struct {
	upgrader      websocket.Upgrader
	svc           *usecase.ChatService
	messageBroker domain.MessageBroker
	alertTopic    string
	hub           *Hub
}

func NewServer(svc *usecase.ChatService, messageBroker domain.MessageBroker, alertTopic string) *Server {
	return &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		svc:           svc,
		messageBroker: messageBroker,
		alertTopic:    alertTopic,
		hub:           NewHub(),
	}
}

// Run starts the hub and the safety alert listener. Both stop with ctx.
func (s *Server) Run(ctx context.Context) error {
	s.hub.Run(ctx)

	alerts, err := s.messageBroker.Subscribe(ctx, s.alertTopic, "")
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.alertTopic, err)
	}
	go s.listenAlerts(ctx, alerts)
	return nil
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// listenAlerts forwards safety alerts from the broker to operator clients.
func (s *Server) listenAlerts(ctx context.Context, alerts <-chan domain.Message) {
	log.WithCtx(ctx).Info("🎧 WebSocket server listening to safety alerts", zap.String("topic", s.alertTopic))

	for {
		select {
		case msg, ok := <-alerts:
			if !ok {
				log.WithCtx(ctx).Info("🔒 Safety alert topic closed")
				return
			}

			var alert domain.SafetyAlert
			if err := json.Unmarshal(msg.Payload, &alert); err != nil {
				log.WithCtx(ctx).Error("❌ Failed to unmarshal safety alert", zap.Error(err))
				continue
			}

			data, err := json.Marshal(Message{
				Type:      TypeSafetyAlert,
				SessionID: alert.SessionID,
				Timestamp: time.Now().UTC(),
				Alert:     &alert,
			})
			if err != nil {
				log.WithCtx(ctx).Error("❌ Failed to marshal WebSocket message", zap.Error(err))
				continue
			}

			s.hub.Broadcast(OperatorClient, data)
			log.WithCtx(ctx).Info("📤 Broadcasted safety alert to operators",
				zap.String("session_id", alert.SessionID),
				zap.Int("operators", s.hub.ClientCount(OperatorClient)))

		case <-ctx.Done():
			log.WithCtx(ctx).Info("🔒 Safety alert listener stopped")
			return
		}
	}
}

// generateSessionID creates a unique session identifier
func generateSessionID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", bytes)
}
