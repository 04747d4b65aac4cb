package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jo-hoe/conceptcheck/internal/backend/aiedit"
	"github.com/jo-hoe/conceptcheck/internal/backend/commands"
	"github.com/jo-hoe/conceptcheck/internal/backend/database"
	"github.com/jo-hoe/conceptcheck/internal/feedback"
)

// ErrInvalidSubmission wraps every input problem found before anything is stored.
var ErrInvalidSubmission = errors.New("invalid submission")

const (
	AIEditPlaceholderMessage = "AI-powered edits need both an OpenAI API key and a description of the change. Nothing was sent."
	AIEditDisabledMessage    = "AI-powered edits are not enabled on this server. Nothing was sent."
)

type SubmissionState int

const (
	StoreOK SubmissionState = iota
	StoreFailed
)

func (s SubmissionState) String() string {
	if s == StoreOK {
		return "StoreOK"
	}
	return "StoreFailed"
}

type AIEditState int

const (
	AIEditNotRequested AIEditState = iota
	AIEditSkipped
	AIEditOK
	AIEditFailed
)

func (s AIEditState) String() string {
	switch s {
	case AIEditSkipped:
		return "Skipped"
	case AIEditOK:
		return "OK"
	case AIEditFailed:
		return "Failed"
	default:
		return "NotRequested"
	}
}

// AIEditOutcome describes what happened to the optional AI edit of one submission.
type AIEditOutcome struct {
	State AIEditState
	// Message is shown to the user for Skipped and Failed.
	Message string
	// URL or ImageKey is set for OK; ImageKey refers to the preview cache.
	URL      string
	ImageKey string
}

// SubmissionResult is the terminal state of one submit.
type SubmissionResult struct {
	RecordID     string
	State        SubmissionState
	StoreError   *database.StoreError
	PreviewKey   string
	PreviewError error
	AIEdit       AIEditOutcome
}

// Submit stores one response and, once stored, renders the preview and runs the optional AI edit.
// The returned error is only set for invalid input; storage and AI failures are part of the result.
func (service *CoreService) Submit(ctx context.Context, snapshot feedback.FormSnapshot) (*SubmissionResult, error) {
	snapshot = snapshot.Normalized()
	mod, err := feedback.NewModificationRequest(snapshot, service.variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}
	record, err := feedback.BuildRecord(snapshot, mod, service.variant, service.ids, service.now())
	if err != nil {
		if errors.Is(err, feedback.ErrRatingOutOfRange) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
		}
		return nil, fmt.Errorf("failed to build record: %w", err)
	}

	result := &SubmissionResult{RecordID: record.ID}
	fields := record.Fields()

	if err := service.store.Append(ctx, fields); err != nil {
		result.State = StoreFailed
		var storeErr *database.StoreError
		if !errors.As(err, &storeErr) {
			storeErr = &database.StoreError{Op: "append", Err: err}
		}
		result.StoreError = storeErr
		slog.Error("failed to store response, record logged for manual recovery",
			"error", err,
			recordAttr(fields))
		service.reportError(err)
		return result, nil
	}
	result.State = StoreOK
	slog.Info("stored response", "id", record.ID, "modify", record.Modify, "variant", service.variant.Name)

	composite, err := service.renderPreview(ctx, mod, result)
	if err != nil {
		result.PreviewError = err
		slog.Error("failed to render preview", "id", record.ID, "error", err)
	}

	result.AIEdit = service.runAIEdit(ctx, record.ID, mod, composite)
	return result, nil
}

// renderPreview composites the concept image and caches the post-processed preview.
// It returns the full-size composite PNG for the AI edit.
func (service *CoreService) renderPreview(ctx context.Context, mod feedback.ModificationRequest, result *SubmissionResult) ([]byte, error) {
	overlay := commands.OverlayFor(mod)
	full := service.conceptPNG
	if !overlay.IsEmpty() {
		var err error
		full, err = commands.EncodePNG(commands.Compose(service.concept, overlay, service.fonts))
		if err != nil {
			return nil, err
		}
	}

	preview, err := service.pipeline.Execute(full)
	if err != nil {
		return full, fmt.Errorf("failed to post-process preview: %w", err)
	}

	key := service.previewKey(overlay)
	if err := service.previews.Put(ctx, key, preview); err != nil {
		return full, fmt.Errorf("failed to cache preview: %w", err)
	}
	result.PreviewKey = key
	return full, nil
}

func (service *CoreService) runAIEdit(ctx context.Context, recordID string, mod feedback.ModificationRequest, composite []byte) AIEditOutcome {
	req, requested := mod.AIEdit.Get()
	if !requested {
		return AIEditOutcome{State: AIEditNotRequested}
	}
	if service.editor == nil {
		return AIEditOutcome{State: AIEditSkipped, Message: AIEditDisabledMessage}
	}
	if !req.Usable() {
		slog.Info("AI edit requested without usable prompt and key, skipping", "id", recordID)
		return AIEditOutcome{State: AIEditSkipped, Message: AIEditPlaceholderMessage}
	}
	if composite == nil {
		return AIEditOutcome{State: AIEditFailed, Message: "The edited image could not be prepared, so nothing was sent."}
	}

	prompt, _ := req.Prompt.Get()
	credential, _ := req.Credential.Get()
	res, err := service.editor.Edit(ctx, credential, aiedit.Request{Image: composite, Prompt: prompt})
	if err != nil {
		slog.Warn("AI edit failed", "id", recordID, "error", err)
		return AIEditOutcome{State: AIEditFailed, Message: err.Error()}
	}

	if res.URL != "" {
		return AIEditOutcome{State: AIEditOK, URL: res.URL}
	}
	key := "ai-" + recordID
	if err := service.previews.Put(ctx, key, res.Image); err != nil {
		slog.Error("failed to cache AI edit result", "id", recordID, "error", err)
		return AIEditOutcome{State: AIEditFailed, Message: "The AI-edited image could not be stored for display."}
	}
	return AIEditOutcome{State: AIEditOK, ImageKey: key}
}

func recordAttr(fields []feedback.Field) slog.Attr {
	attrs := make([]any, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.String(f.Name, f.Value))
	}
	return slog.Group("record", attrs...)
}
