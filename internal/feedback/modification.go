package feedback

import (
	"fmt"
	"image/color"
	"strings"
)

// AIEditRequest asks the image-edit collaborator to rework the composite.
type AIEditRequest struct {
	Prompt     Optional[string]
	Credential Optional[Credential]
}

// Usable reports whether both a prompt and a credential were supplied.
func (r AIEditRequest) Usable() bool {
	prompt, hasPrompt := r.Prompt.Get()
	cred, hasCred := r.Credential.Get()
	return hasPrompt && prompt != "" && hasCred && cred.Reveal() != ""
}

// ModificationRequest holds the optional edit instructions of one submission.
// The zero value means "no modification requested".
type ModificationRequest struct {
	Background  Optional[color.RGBA]
	Text        Optional[string]
	Position    Position
	Description Optional[string]
	AIEdit      Optional[AIEditRequest]
}

// NewModificationRequest extracts the modify-branch fields from a snapshot.
// When the modify flag is unset every field stays absent regardless of what the form sent.
func NewModificationRequest(snapshot FormSnapshot, variant Variant) (ModificationRequest, error) {
	if !snapshot.Modify {
		return ModificationRequest{}, nil
	}

	var mod ModificationRequest
	if snapshot.ChangeColor != "" {
		c, err := ParseHexColor(snapshot.ChangeColor)
		if err != nil {
			return ModificationRequest{}, err
		}
		mod.Background = Some(c)
	}

	mod.Text = someIfNotEmpty(snapshot.NewText)

	mod.Position = PositionTop
	if snapshot.TextPosition != "" {
		p, err := ParsePosition(snapshot.TextPosition)
		if err != nil {
			return ModificationRequest{}, err
		}
		mod.Position = p
	}

	if variant.CollectDescription {
		mod.Description = someIfNotEmpty(strings.TrimSpace(snapshot.ChangeDescription))
	}

	if variant.OfferAIEdit && snapshot.UseAIEdit {
		req := AIEditRequest{Prompt: someIfNotEmpty(strings.TrimSpace(snapshot.AIPrompt))}
		if key := strings.TrimSpace(snapshot.AIAPIKey); key != "" {
			req.Credential = Some(NewCredential(key))
		}
		mod.AIEdit = Some(req)
	}

	return mod, nil
}

// positionValue is empty when the modify branch was not taken.
func (m ModificationRequest) positionValue(modify bool) string {
	if !modify {
		return ""
	}
	return m.Position.String()
}

func (m ModificationRequest) String() string {
	return fmt.Sprintf("ModificationRequest{background:%t text:%t position:%s description:%t ai_edit:%t}",
		m.Background.IsPresent(), m.Text.IsPresent(), m.Position, m.Description.IsPresent(), m.AIEdit.IsPresent())
}
