package commands

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontResourceError reports a scalable font that could not be loaded.
// It is never surfaced to users; the overlay falls back to a fixed-size face.
type FontResourceError struct {
	Path string
	Err  error
}

func (e *FontResourceError) Error() string {
	return fmt.Sprintf("font resource %q unavailable: %v", e.Path, e.Err)
}

func (e *FontResourceError) Unwrap() error {
	return e.Err
}

// FontSource hands out faces for overlay text. A nil or empty source yields the fixed-size face.
type FontSource struct {
	font *opentype.Font
	name string
}

// NewFontSource loads the font at path, or the bundled Go Regular when path is empty.
// Any failure degrades to basicfont.Face7x13 and is only logged.
func NewFontSource(path string) *FontSource {
	if path == "" {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			slog.Warn("bundled font unavailable, using fixed-size default font",
				"error", &FontResourceError{Path: "goregular", Err: err})
			return &FontSource{name: "basicfont"}
		}
		return &FontSource{font: f, name: "goregular"}
	}

	f, err := loadFontFile(path)
	if err != nil {
		slog.Warn("configured font unavailable, using fixed-size default font", "error", err)
		return &FontSource{name: "basicfont"}
	}
	slog.Debug("loaded overlay font", "path", path)
	return &FontSource{font: f, name: path}
}

func loadFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FontResourceError{Path: path, Err: err}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, &FontResourceError{Path: path, Err: err}
	}
	return f, nil
}

// Scalable reports whether faces follow the requested size.
func (s *FontSource) Scalable() bool {
	return s != nil && s.font != nil
}

func (s *FontSource) Name() string {
	if s == nil || s.name == "" {
		return "basicfont"
	}
	return s.name
}

// Face returns a face of roughly size pixels, or the fixed 7x13 face.
// Faces are not safe for concurrent use; callers create one per drawing.
func (s *FontSource) Face(size float64) font.Face {
	if !s.Scalable() {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		slog.Warn("failed to create font face, using fixed-size default font",
			"font", s.name, "size", size, "error", err)
		return basicfont.Face7x13
	}
	return face
}
