package aiedit

import (
	"context"
	"fmt"

	"github.com/jo-hoe/conceptcheck/internal/feedback"
)

// Request is an edited concept image (PNG) plus the user's instruction.
type Request struct {
	Image  []byte
	Prompt string
}

// Result holds either a URL to the generated image or the image bytes themselves.
type Result struct {
	URL   string
	Image []byte
}

// Editor forwards an image and a prompt to a generative image service.
// The credential is only revealed inside Edit and never stored.
type Editor interface {
	Edit(ctx context.Context, credential feedback.Credential, req Request) (*Result, error)
}

// AIEditError wraps every failure of an edit call. Its message is safe to show to users.
type AIEditError struct {
	Op  string
	Err error
}

func (e *AIEditError) Error() string {
	return fmt.Sprintf("image edit %s failed: %v", e.Op, e.Err)
}

func (e *AIEditError) Unwrap() error {
	return e.Err
}
