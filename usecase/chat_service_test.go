package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/confidant/config"
	"github.com/satriahrh/confidant/domain"
)

func collect(seq func(func([]domain.Turn) bool)) [][]domain.Turn {
	var out [][]domain.Turn
	for snap := range seq {
		out = append(out, snap)
	}
	return out
}

func TestChatService_SubmitStreamsChunks(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"I ", "hear ", "you."}}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript()

	snaps := collect(svc.Submit(context.Background(), tr, domain.Submission{Text: "hello"}))

	require.Len(t, snaps, 4)
	assert.Equal(t, []domain.Turn{{User: "hello"}}, snaps[0])
	assert.Equal(t, "I ", snaps[1][0].Assistant)
	assert.Equal(t, "I hear ", snaps[2][0].Assistant)
	assert.Equal(t, "I hear you.", snaps[3][0].Assistant)

	last, _ := tr.Last()
	assert.Equal(t, strings.Join(gen.chunks, ""), last.Assistant)
	assert.False(t, tr.InProgress())
}

func TestChatService_SubmitComposesPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestService(gen, nil)

	collect(svc.Submit(context.Background(), domain.NewTranscript(), domain.Submission{Text: "hello", Image: []byte{1}}))

	require.Len(t, gen.prompts, 1)
	assert.Equal(t, config.DefaultPersona+" User question: hello The user also uploaded an image.", gen.prompts[0])
}

func TestChatService_SubmitImageOnly(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"Nice picture."}}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript()

	collect(svc.Submit(context.Background(), tr, domain.Submission{Image: []byte{0xff}}))

	require.Len(t, gen.prompts, 1)
	assert.Equal(t, config.DefaultPersona+" The user also uploaded an image.", gen.prompts[0])
	assert.Equal(t, []domain.Turn{{User: "", Assistant: "Nice picture."}}, tr.Turns())
}

func TestChatService_SubmitEmptyInput(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"never"}}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript(domain.Turn{User: "a", Assistant: "b"})

	snaps := collect(svc.Submit(context.Background(), tr, domain.Submission{}))

	require.Len(t, snaps, 1)
	assert.Empty(t, gen.prompts)
	last, _ := tr.Last()
	assert.Equal(t, domain.Turn{User: "System", Assistant: "Please provide either text or an image."}, last)
	assert.Equal(t, 2, tr.Len())
}

func TestChatService_SubmitFailureKeepsPartialOutput(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"He", "llo"}, err: errors.New("quota exceeded")}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript()

	snaps := collect(svc.Submit(context.Background(), tr, domain.Submission{Text: "hi"}))

	require.Len(t, snaps, 4)
	last, _ := tr.Last()
	assert.Equal(t, "HelloAn error occurred: quota exceeded", last.Assistant)
	assert.Equal(t, last, snaps[3][0])
	assert.False(t, tr.InProgress())
}

func TestChatService_SubmitFailureBeforeAnyChunk(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("permission denied")}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript()

	collect(svc.Submit(context.Background(), tr, domain.Submission{Text: "hi"}))

	assert.Equal(t, []domain.Turn{{User: "hi", Assistant: "An error occurred: permission denied"}}, tr.Turns())

	// the transcript stays usable
	gen.err = nil
	gen.chunks = []string{"ok"}
	collect(svc.Submit(context.Background(), tr, domain.Submission{Text: "again"}))
	assert.Equal(t, 2, tr.Len())
}

func TestChatService_SubmitIsNotRestartable(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"x"}}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript()

	seq := svc.Submit(context.Background(), tr, domain.Submission{Text: "hi"})
	first := collect(seq)
	second := collect(seq)

	assert.Len(t, first, 2)
	assert.Empty(t, second)
	assert.Len(t, gen.prompts, 1)
	assert.Equal(t, 1, tr.Len())
}

func TestChatService_ConsumerStopsEarly(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"a", "b", "c"}}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript()

	n := 0
	for range svc.Submit(context.Background(), tr, domain.Submission{Text: "hi"}) {
		n++
		if n == 2 {
			break
		}
	}

	assert.False(t, tr.InProgress())
	last, _ := tr.Last()
	assert.Equal(t, "a", last.Assistant)
}

func TestChatService_SubmitWhileInProgress(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"x"}}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript()
	require.NoError(t, tr.Begin("pending"))

	snaps := collect(svc.Submit(context.Background(), tr, domain.Submission{Text: "hi"}))

	assert.Empty(t, snaps)
	assert.Empty(t, gen.prompts)
	assert.Equal(t, 1, tr.Len())
}

func TestChatService_SubmitRaisesSafetyAlert(t *testing.T) {
	broker := &fakeBroker{}
	gen := &fakeGenerator{chunks: []string{"I'm here for you."}}
	svc := newTestService(gen, broker)
	tr := domain.NewTranscript()

	snaps := collect(svc.Submit(context.Background(), tr, domain.Submission{Text: "I want to kill myself"}))

	assert.Equal(t, 1, broker.count())
	// the alert does not block or alter the reply
	require.Len(t, snaps, 2)
	assert.Equal(t, "I'm here for you.", snaps[1][0].Assistant)
}

func TestChatService_Undo(t *testing.T) {
	svc := newTestService(&fakeGenerator{}, nil)
	base := []domain.Turn{{User: "a", Assistant: "b"}}
	tr := domain.NewTranscript(base...)
	require.NoError(t, tr.Begin("c"))

	assert.Equal(t, base, svc.Undo(tr).Turns())
	assert.Empty(t, svc.Undo(svc.Undo(tr)).Turns())
}

func TestChatService_RetryReproducesPrompt(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"first"}}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript()

	collect(svc.Submit(context.Background(), tr, domain.Submission{Text: "hello", Image: []byte{1}}))
	gen.chunks = []string{"second"}

	seq, ok := svc.Retry(context.Background(), tr)
	require.True(t, ok)
	snaps := collect(seq)

	require.Len(t, gen.prompts, 2)
	// the retried submission carries no image
	assert.Equal(t, config.DefaultPersona+" User question: hello", gen.prompts[1])
	require.NotEmpty(t, snaps)
	assert.Equal(t, []domain.Turn{{User: "hello", Assistant: "second"}}, tr.Turns())
}

func TestChatService_RetryWithoutImageMatchesOriginalPrompt(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"x"}}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript()

	collect(svc.Submit(context.Background(), tr, domain.Submission{Text: "hello"}))
	seq, ok := svc.Retry(context.Background(), tr)
	require.True(t, ok)
	collect(seq)

	require.Len(t, gen.prompts, 2)
	assert.Equal(t, gen.prompts[0], gen.prompts[1])
	assert.Equal(t, 1, tr.Len())
}

func TestChatService_RetryEmpty(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestService(gen, nil)
	tr := domain.NewTranscript()

	seq, ok := svc.Retry(context.Background(), tr)

	assert.False(t, ok)
	assert.Nil(t, seq)
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, gen.prompts)
}
