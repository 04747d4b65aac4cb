package commands

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/jo-hoe/conceptcheck/internal/backend/commandstructure"
	"github.com/jo-hoe/conceptcheck/internal/feedback"
)

// BackgroundCommand places the image over a solid colour, filling transparent areas.
type BackgroundCommand struct {
	name  string
	color color.RGBA
}

func NewBackgroundCommand(params map[string]any) (commandstructure.Command, error) {
	if err := commandstructure.ValidateRequiredParams(params, []string{"color"}); err != nil {
		return nil, err
	}
	c, err := feedback.ParseHexColor(commandstructure.GetStringParam(params, "color", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid color parameter: %w", err)
	}
	return &BackgroundCommand{name: "BackgroundCommand", color: c}, nil
}

func (c *BackgroundCommand) Name() string {
	return c.name
}

func (c *BackgroundCommand) Execute(imageData []byte) ([]byte, error) {
	img, err := decodePNG(imageData)
	if err != nil {
		return nil, err
	}
	slog.Debug("applying background colour", "color", feedback.FormatHexColor(c.color))
	out := Compose(img, Overlay{Background: feedback.Some(c.color)}, nil)
	return EncodePNG(out)
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("BackgroundCommand", NewBackgroundCommand); err != nil {
		panic(fmt.Sprintf("failed to register BackgroundCommand: %v", err))
	}
}
