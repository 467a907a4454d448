package usecase

import (
	"context"
	"iter"
	"sync"

	"github.com/satriahrh/confidant/config"
	"github.com/satriahrh/confidant/domain"
)

type fakeGenerator struct {
	chunks  []string
	err     error
	prompts []string
}

func (f *fakeGenerator) GenerateStream(_ context.Context, prompt string) iter.Seq2[string, error] {
	f.prompts = append(f.prompts, prompt)
	return func(yield func(string, error) bool) {
		for _, c := range f.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

type fakeHasher struct{}

func (fakeHasher) Hash(data []byte) string { return "hash:" + string(data) }

type published struct {
	topic   string
	payload []byte
}

type fakeBroker struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (b *fakeBroker) Publish(_ context.Context, topic, _ string, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.messages = append(b.messages, published{topic: topic, payload: message})
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string, string) (<-chan domain.Message, error) {
	return make(chan domain.Message), nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

func newTestService(gen domain.Generator, broker domain.MessageBroker) *ChatService {
	cfg := config.Default()
	scanner := NewSafetyScanner(cfg.Safety.Keywords, fakeHasher{}, broker, cfg.Safety.AlertTopic)
	composer := NewPromptComposer(cfg.Prompt.Persona, cfg.Prompt.QuestionPrefix, cfg.Prompt.ImageNote)
	return NewChatService(gen, scanner, composer, cfg.Chat)
}
