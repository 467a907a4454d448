package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/satriahrh/confidant/config"
	"github.com/satriahrh/confidant/domain"
)

var ErrEmptyAudio = errors.New("audio is empty")

type GoogleSpeech struct {
	client       *speech.Client
	languageCode string
	sampleRate   int32
}

var _ domain.Transcriber = (*GoogleSpeech)(nil)

func NewGoogleSpeech(ctx context.Context, cfg config.VoiceConfig) (*GoogleSpeech, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating Google speech client: %w", err)
	}
	return &GoogleSpeech{
		client:       client,
		languageCode: cfg.LanguageCode,
		sampleRate:   cfg.SampleRateHertz,
	}, nil
}

// Transcribe recognizes LINEAR16 audio and joins the best alternative of
// every result.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            g.sampleRate,
			LanguageCode:               g.languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognizing speech: %w", err)
	}

	return joinTranscripts(resp.GetResults()), nil
}

func joinTranscripts(results []*speechpb.SpeechRecognitionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (g *GoogleSpeech) Close() error {
	return g.client.Close()
}
