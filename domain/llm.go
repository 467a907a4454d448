package domain

import (
	"context"
	"iter"
)

// Generator abstracts any streaming chat/LLM provider.
type Generator interface {
	// GenerateStream sends prompt and yields reply fragments in arrival order.
	// A non-nil error is the final element of the sequence.
	GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)
