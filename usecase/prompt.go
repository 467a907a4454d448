package usecase

// PromptComposer builds the single-shot prompt sent for each turn.
type PromptComposer struct {
	persona        string
	questionPrefix string
	imageNote      string
}

func NewPromptComposer(persona, questionPrefix, imageNote string) *PromptComposer {
	return &PromptComposer{
		persona:        persona,
		questionPrefix: questionPrefix,
		imageNote:      imageNote,
	}
}

// Compose returns the persona, the user's question when there is one, and a
// note when an image came with it.
func (p *PromptComposer) Compose(userText string, hasImage bool) string {
	prompt := p.persona
	if userText != "" {
		prompt += p.questionPrefix + userText
	}
	if hasImage {
		prompt += p.imageNote
	}
	return prompt
}
