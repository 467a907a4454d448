package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/satriahrh/confidant/domain"
	"github.com/satriahrh/confidant/utils/log"
	"go.uber.org/zap"
)

// SafetyScanner flags self-harm language for the operator. It never changes
// what the user sees.
type SafetyScanner struct {
	keywords []string
	hasher   domain.Hasher
	broker   domain.MessageBroker
	topic    string
}

// NewSafetyScanner builds a scanner over keywords. hasher and broker may be
// nil; without a broker alerts are only logged.
func NewSafetyScanner(keywords []string, hasher domain.Hasher, broker domain.MessageBroker, topic string) *SafetyScanner {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}
	return &SafetyScanner{
		keywords: lowered,
		hasher:   hasher,
		broker:   broker,
		topic:    topic,
	}
}

// Matches returns the configured keywords contained in text, ignoring case.
func (s *SafetyScanner) Matches(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	for _, k := range s.keywords {
		if strings.Contains(lower, k) {
			found = append(found, k)
		}
	}
	return found
}

// Scan reports whether text contains any keyword and raises an operator alert
// when it does.
func (s *SafetyScanner) Scan(ctx context.Context, text string) bool {
	found := s.Matches(text)
	if len(found) == 0 {
		return false
	}

	alert := domain.SafetyAlert{
		SessionID: log.SessionID(ctx),
		Keywords:  found,
		Timestamp: time.Now().UTC(),
	}
	if s.hasher != nil {
		alert.Fingerprint = s.hasher.Hash([]byte(text))
	}

	log.WithCtx(ctx).Warn("⚠️ Dangerous keywords detected in user input, please intervene immediately",
		zap.Strings("keywords", found),
		zap.String("fingerprint", alert.Fingerprint))

	s.publish(ctx, alert)
	return true
}

func (s *SafetyScanner) publish(ctx context.Context, alert domain.SafetyAlert) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		log.WithCtx(ctx).Error("❌ Failed to marshal safety alert", zap.Error(err))
		return
	}
	if err := s.broker.Publish(ctx, s.topic, "", payload); err != nil {
		log.WithCtx(ctx).Warn("Failed to publish safety alert", zap.String("topic", s.topic), zap.Error(err))
	}
}
