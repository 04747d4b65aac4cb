package commands

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/jo-hoe/conceptcheck/internal/feedback"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	textMargin          = 10
	bottomInset         = 30
	centerHalfTextWidth = 50
	fontHeightRatio     = 0.05
	minFontSize         = 12
)

// Overlay is the part of a modification request the compositor acts on.
type Overlay struct {
	Background feedback.Optional[color.RGBA]
	Text       feedback.Optional[string]
	Position   feedback.Position
}

func OverlayFor(mod feedback.ModificationRequest) Overlay {
	return Overlay{
		Background: mod.Background,
		Text:       mod.Text,
		Position:   mod.Position,
	}
}

// IsEmpty reports whether composing would just copy the base image.
func (o Overlay) IsEmpty() bool {
	return !o.Background.IsPresent() && !o.Text.IsPresent()
}

// Compose layers the base image over an optional solid background and draws optional text.
// base is never modified; the result always has base's size with its origin at (0,0).
func Compose(base image.Image, overlay Overlay, fonts *FontSource) *image.RGBA {
	b := base.Bounds()
	w, h := b.Dx(), b.Dy()

	var working *image.RGBA
	if bg, ok := overlay.Background.Get(); ok {
		working = createTargetCanvas(w, h, bg)
		parallelFor(h, func(y int) {
			row := image.Rect(0, y, w, y+1)
			draw.Draw(working, row, base, image.Pt(b.Min.X, b.Min.Y+y), draw.Over)
		})
	} else {
		working = copyToRGBA(base)
	}

	if text, ok := overlay.Text.Get(); ok {
		drawOverlayText(working, text, overlay.Position, fonts)
	}
	return working
}

func fontSizeFor(height int) float64 {
	size := float64(height) * fontHeightRatio
	if size < minFontSize {
		return minFontSize
	}
	return size
}

func strokeWidthFor(fonts *FontSource, size float64) int {
	if !fonts.Scalable() {
		return 1
	}
	if s := int(size / 15); s > 1 {
		return s
	}
	return 1
}

// anchorFor returns the top-left corner of the text box.
// Bottom text starts 30px above the bottom edge and is lifted further when the
// height-scaled font would otherwise be clipped.
func anchorFor(pos feedback.Position, w, h, textHeight int) (int, int) {
	switch pos {
	case feedback.PositionCenter:
		return w/2 - centerHalfTextWidth, h / 2
	case feedback.PositionBottom:
		top := h - bottomInset
		if top+textHeight > h-textMargin {
			top = h - textMargin - textHeight
		}
		return textMargin, top
	default:
		return textMargin, textMargin
	}
}

// drawOverlayText draws white text with a black outline so it stays legible on any background.
func drawOverlayText(dst *image.RGBA, text string, pos feedback.Position, fonts *FontSource) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	size := fontSizeFor(h)
	face := fonts.Face(size)
	if fonts.Scalable() {
		defer func() { _ = face.Close() }()
	}

	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()
	x, top := anchorFor(pos, w, h, textHeight)
	baseline := top + metrics.Ascent.Ceil()
	stroke := strokeWidthFor(fonts, size)

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	for dy := -stroke; dy <= stroke; dy++ {
		for dx := -stroke; dx <= stroke; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawer.Dot = fixed.P(x+dx, baseline+dy)
			drawer.DrawString(text)
		}
	}

	drawer.Src = image.NewUniform(color.White)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}
