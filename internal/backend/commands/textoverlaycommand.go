package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jo-hoe/conceptcheck/internal/backend/commandstructure"
	"github.com/jo-hoe/conceptcheck/internal/feedback"
)

// TextOverlayCommand draws outlined text at one of the fixed anchor positions.
type TextOverlayCommand struct {
	name     string
	text     string
	position feedback.Position
	fonts    *FontSource
}

func NewTextOverlayCommand(params map[string]any) (commandstructure.Command, error) {
	text := commandstructure.GetStringParam(params, "text", "")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("missing required parameter: text")
	}
	pos, err := feedback.ParsePosition(commandstructure.GetStringParam(params, "position", feedback.PositionTop.String()))
	if err != nil {
		return nil, err
	}
	return &TextOverlayCommand{
		name:     "TextOverlayCommand",
		text:     text,
		position: pos,
		fonts:    NewFontSource(commandstructure.GetStringParam(params, "fontPath", "")),
	}, nil
}

func (c *TextOverlayCommand) Name() string {
	return c.name
}

func (c *TextOverlayCommand) Execute(imageData []byte) ([]byte, error) {
	img, err := decodePNG(imageData)
	if err != nil {
		return nil, err
	}
	slog.Debug("drawing text overlay", "position", c.position.String(), "font", c.fonts.Name())
	out := Compose(img, Overlay{Text: feedback.Some(c.text), Position: c.position}, c.fonts)
	return EncodePNG(out)
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("TextOverlayCommand", NewTextOverlayCommand); err != nil {
		panic(fmt.Sprintf("failed to register TextOverlayCommand: %v", err))
	}
}
