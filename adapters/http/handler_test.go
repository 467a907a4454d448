package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/confidant/config"
	"github.com/satriahrh/confidant/domain"
	"github.com/satriahrh/confidant/usecase"
)

type stubGenerator struct {
	chunks  []string
	err     error
	prompts []string
}

func (s *stubGenerator) GenerateStream(_ context.Context, prompt string) iter.Seq2[string, error] {
	s.prompts = append(s.prompts, prompt)
	return func(yield func(string, error) bool) {
		for _, c := range s.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

type stubVoice struct {
	text  string
	audio []byte
	err   error
}

func (s stubVoice) Transcribe(context.Context, []byte) (string, error) { return s.text, s.err }
func (s stubVoice) Synthesize(context.Context, string) ([]byte, error) { return s.audio, s.err }

func newServer(gen domain.Generator, voice *stubVoice) *echo.Echo {
	cfg := config.Default()
	svc := usecase.NewChatService(
		gen,
		usecase.NewSafetyScanner(cfg.Safety.Keywords, nil, nil, ""),
		usecase.NewPromptComposer(cfg.Prompt.Persona, cfg.Prompt.QuestionPrefix, cfg.Prompt.ImageNote),
		cfg.Chat,
	)

	var h *ChatHandler
	if voice != nil {
		h = NewChatHandler(svc, voice, voice)
	} else {
		h = NewChatHandler(svc, nil, nil)
	}

	e := echo.New()
	h.Register(e.Group("/api/v1"))
	return e
}

func do(e *echo.Echo, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeLines(t *testing.T, body string) []HistoryResponse {
	t.Helper()
	var out []HistoryResponse
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		var r HistoryResponse
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		out = append(out, r)
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	e := newServer(&stubGenerator{}, nil)

	rec := do(e, http.MethodGet, "/api/v1/health", echo.MIMEApplicationJSON, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestSubmit_StreamsSnapshots(t *testing.T) {
	gen := &stubGenerator{chunks: []string{"He", "llo"}}
	e := newServer(gen, nil)

	rec := do(e, http.MethodPost, "/api/v1/chat/submit", echo.MIMEApplicationJSON,
		`{"text":"hi","history":[{"user":"a","assistant":"b"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MIMEApplicationNDJSON, rec.Header().Get(echo.HeaderContentType))

	lines := decodeLines(t, rec.Body.String())
	require.Len(t, lines, 3)
	assert.Equal(t, []domain.Turn{{User: "a", Assistant: "b"}, {User: "hi"}}, lines[0].History)
	assert.Equal(t, []domain.Turn{{User: "a", Assistant: "b"}, {User: "hi", Assistant: "Hello"}}, lines[2].History)
}

func TestSubmit_ImageOnly(t *testing.T) {
	gen := &stubGenerator{chunks: []string{"ok"}}
	e := newServer(gen, nil)

	// "aGk=" is base64 for "hi"
	rec := do(e, http.MethodPost, "/api/v1/chat/submit", echo.MIMEApplicationJSON, `{"image":"aGk="}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, gen.prompts, 1)
	assert.True(t, strings.HasSuffix(gen.prompts[0], " The user also uploaded an image."))
}

func TestSubmit_EmptyInput(t *testing.T) {
	gen := &stubGenerator{}
	e := newServer(gen, nil)

	rec := do(e, http.MethodPost, "/api/v1/chat/submit", echo.MIMEApplicationJSON, `{"text":""}`)

	lines := decodeLines(t, rec.Body.String())
	require.Len(t, lines, 1)
	assert.Equal(t, []domain.Turn{{User: "System", Assistant: "Please provide either text or an image."}}, lines[0].History)
	assert.Empty(t, gen.prompts)
}

func TestSubmit_GenerationError(t *testing.T) {
	gen := &stubGenerator{chunks: []string{"He", "llo"}, err: errors.New("boom")}
	e := newServer(gen, nil)

	rec := do(e, http.MethodPost, "/api/v1/chat/submit", echo.MIMEApplicationJSON, `{"text":"hi"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	lines := decodeLines(t, rec.Body.String())
	final := lines[len(lines)-1].History
	assert.Equal(t, "HelloAn error occurred: boom", final[0].Assistant)
}

func TestSubmit_BadBody(t *testing.T) {
	e := newServer(&stubGenerator{}, nil)

	rec := do(e, http.MethodPost, "/api/v1/chat/submit", echo.MIMEApplicationJSON, `{"text":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUndo(t *testing.T) {
	e := newServer(&stubGenerator{}, nil)

	rec := do(e, http.MethodPost, "/api/v1/chat/undo", echo.MIMEApplicationJSON,
		`{"history":[{"user":"a","assistant":"b"},{"user":"c","assistant":"d"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []domain.Turn{{User: "a", Assistant: "b"}}, resp.History)
}

func TestUndo_Empty(t *testing.T) {
	e := newServer(&stubGenerator{}, nil)

	rec := do(e, http.MethodPost, "/api/v1/chat/undo", echo.MIMEApplicationJSON, `{"history":[]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"history":[]}`, rec.Body.String())
}

func TestRetry_Streams(t *testing.T) {
	gen := &stubGenerator{chunks: []string{"again"}}
	e := newServer(gen, nil)

	rec := do(e, http.MethodPost, "/api/v1/chat/retry", echo.MIMEApplicationJSON,
		`{"history":[{"user":"hello","assistant":"first"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MIMEApplicationNDJSON, rec.Header().Get(echo.HeaderContentType))
	lines := decodeLines(t, rec.Body.String())
	require.NotEmpty(t, lines)
	assert.Equal(t, []domain.Turn{{User: "hello", Assistant: "again"}}, lines[len(lines)-1].History)
	require.Len(t, gen.prompts, 1)
	assert.True(t, strings.HasSuffix(gen.prompts[0], " User question: hello"))
}

func TestRetry_EmptyHistoryIsPlainJSON(t *testing.T) {
	gen := &stubGenerator{}
	e := newServer(gen, nil)

	rec := do(e, http.MethodPost, "/api/v1/chat/retry", echo.MIMEApplicationJSON, `{"history":[]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.JSONEq(t, `{"history":[]}`, rec.Body.String())
	assert.Empty(t, gen.prompts)
}

func TestVoiceRoutes_DisabledByDefault(t *testing.T) {
	e := newServer(&stubGenerator{}, nil)

	rec := do(e, http.MethodPost, "/api/v1/voice/synthesize", echo.MIMEApplicationJSON, `{"text":"hi"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTranscribe(t *testing.T) {
	e := newServer(&stubGenerator{}, &stubVoice{text: "I feel tired"})

	rec := do(e, http.MethodPost, "/api/v1/voice/transcribe", "audio/wav", "RIFF....")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":"I feel tired"}`, rec.Body.String())
}

func TestTranscribe_Errors(t *testing.T) {
	e := newServer(&stubGenerator{}, &stubVoice{err: errors.New("quota")})

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/v1/voice/transcribe", "text/plain", "x").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/v1/voice/transcribe", "audio/wav", "").Code)
	assert.Equal(t, http.StatusBadGateway, do(e, http.MethodPost, "/api/v1/voice/transcribe", "audio/wav", "RIFF").Code)
}

func TestSynthesize(t *testing.T) {
	e := newServer(&stubGenerator{}, &stubVoice{audio: []byte("mp3-bytes")})

	rec := do(e, http.MethodPost, "/api/v1/voice/synthesize", echo.MIMEApplicationJSON, `{"text":"breathe"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "mp3-bytes", rec.Body.String())

	rec = do(e, http.MethodPost, "/api/v1/voice/synthesize", echo.MIMEApplicationJSON, `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
