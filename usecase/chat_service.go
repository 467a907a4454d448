package usecase

import (
	"context"
	"iter"

	"github.com/satriahrh/confidant/config"
	"github.com/satriahrh/confidant/domain"
	"github.com/satriahrh/confidant/utils/log"
	"go.uber.org/zap"
)

// ChatService runs submissions against a transcript and yields a snapshot of
// the whole conversation after every change.
type ChatService struct {
	llm      domain.Generator
	scanner  *SafetyScanner
	composer *PromptComposer
	messages config.ChatConfig
}

func NewChatService(gen domain.Generator, scanner *SafetyScanner, composer *PromptComposer, messages config.ChatConfig) *ChatService {
	return &ChatService{
		llm:      gen,
		scanner:  scanner,
		composer: composer,
		messages: messages,
	}
}

// Submit validates the input, starts a new turn and streams the model reply
// into it. The returned sequence can be ranged over once; the transcript is
// mutated in place as it is consumed.
func (s *ChatService) Submit(ctx context.Context, t *domain.Transcript, in domain.Submission) iter.Seq[[]domain.Turn] {
	used := false
	return func(yield func([]domain.Turn) bool) {
		if used {
			return
		}
		used = true
		s.run(ctx, t, in, yield)
	}
}

func (s *ChatService) run(ctx context.Context, t *domain.Transcript, in domain.Submission, yield func([]domain.Turn) bool) {
	logger := log.WithCtx(ctx)

	if in.Empty() {
		if err := t.AppendSystem(s.messages.SystemUser, s.messages.EmptyInputMessage); err != nil {
			logger.Warn("Cannot append validation message", zap.Error(err))
			return
		}
		yield(t.Turns())
		return
	}

	s.scanner.Scan(ctx, in.Text)
	prompt := s.composer.Compose(in.Text, in.HasImage())

	if err := t.Begin(in.Text); err != nil {
		logger.Warn("Submission rejected", zap.Error(err))
		return
	}
	// The turn is frozen on every exit path, including a consumer that stops early.
	defer t.Finish()

	if !yield(t.Turns()) {
		return
	}

	chunks := 0
	for chunk, err := range s.llm.GenerateStream(ctx, prompt) {
		if err != nil {
			logger.Error("❌ Generation failed", zap.Int("chunks", chunks), zap.Error(err))
			_ = t.Fail(s.messages.ErrorPrefix + err.Error())
			yield(t.Turns())
			return
		}
		chunks++
		_ = t.AppendChunk(chunk)
		if !yield(t.Turns()) {
			logger.Debug("Snapshot consumer stopped early", zap.Int("chunks", chunks))
			return
		}
	}
	logger.Debug("Generation completed", zap.Int("chunks", chunks))
}

// Undo drops the last turn, if any, and returns the same transcript.
func (s *ChatService) Undo(t *domain.Transcript) *domain.Transcript {
	t.Undo()
	return t
}

// Retry drops the last turn and submits its user text again, without an image.
// ok is false when the transcript is empty; the caller then keeps the
// transcript as it is.
func (s *ChatService) Retry(ctx context.Context, t *domain.Transcript) (snapshots iter.Seq[[]domain.Turn], ok bool) {
	last, ok := t.Undo()
	if !ok {
		return nil, false
	}
	return s.Submit(ctx, t, domain.Submission{Text: last.User}), true
}
