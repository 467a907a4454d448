package domain

import "errors"

var (
	ErrTurnInProgress   = errors.New("a turn is already in progress")
	ErrNoTurnInProgress = errors.New("no turn in progress")
)

// Turn is one user/assistant exchange.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Transcript is the ordered conversation. Only the last turn can be in
// progress, and only an in-progress turn accepts new assistant text.
//
// A Transcript is not safe for concurrent use.
type Transcript struct {
	turns     []Turn
	streaming bool
}

// NewTranscript returns a transcript holding finished copies of turns.
func NewTranscript(turns ...Turn) *Transcript {
	return &Transcript{turns: append([]Turn(nil), turns...)}
}

func (t *Transcript) Len() int { return len(t.turns) }

// InProgress reports whether the last turn is still receiving assistant text.
func (t *Transcript) InProgress() bool { return t.streaming }

// Turns returns a snapshot of the conversation.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Last returns the most recent turn.
func (t *Transcript) Last() (Turn, bool) {
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// Begin appends an empty-assistant turn for user and marks it in progress.
func (t *Transcript) Begin(user string) error {
	if t.streaming {
		return ErrTurnInProgress
	}
	t.turns = append(t.turns, Turn{User: user})
	t.streaming = true
	return nil
}

// AppendSystem appends a finished turn that did not come from the model.
func (t *Transcript) AppendSystem(user, message string) error {
	if t.streaming {
		return ErrTurnInProgress
	}
	t.turns = append(t.turns, Turn{User: user, Assistant: message})
	return nil
}

// AppendChunk concatenates chunk onto the in-progress turn.
func (t *Transcript) AppendChunk(chunk string) error {
	if !t.streaming {
		return ErrNoTurnInProgress
	}
	t.turns[len(t.turns)-1].Assistant += chunk
	return nil
}

// Fail appends message to the in-progress turn and finishes it. Text already
// received is kept.
func (t *Transcript) Fail(message string) error {
	if err := t.AppendChunk(message); err != nil {
		return err
	}
	t.streaming = false
	return nil
}

// Finish freezes the in-progress turn. It is a no-op when nothing is streaming.
func (t *Transcript) Finish() {
	t.streaming = false
}

// Undo removes the last turn, in progress or not. It reports whether a turn
// was removed.
func (t *Transcript) Undo() (Turn, bool) {
	last, ok := t.Last()
	if !ok {
		return Turn{}, false
	}
	t.turns = t.turns[:len(t.turns)-1]
	t.streaming = false
	return last, true
}
