package domain

// Submission is one user action: text, an image, or both.
type Submission struct {
	Text  string
	Image []byte
}

func (s Submission) HasImage() bool { return len(s.Image) > 0 }

// Empty reports whether there is nothing to send to the model.
func (s Submission) Empty() bool { return s.Text == "" && !s.HasImage() }
