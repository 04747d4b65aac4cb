package aiedit

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/jo-hoe/conceptcheck/internal/backend/commands"
	xdraw "golang.org/x/image/draw"
)

// MaxEditSide is the largest square the edits endpoint is sent.
const MaxEditSide = 1024

// editInput is the PNG pair sent to /images/edits.
type editInput struct {
	image []byte
	mask  []byte
	side  int
}

// prepareEditInput centers the image on a transparent square canvas, downscaled to at most
// MaxEditSide, and pairs it with a fully transparent mask of the same size.
// The edits endpoint only accepts square images and needs a mask when the image is opaque;
// a transparent mask leaves the whole image open to the prompt.
func prepareEditInput(data []byte) (*editInput, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("image has no pixels")
	}

	side := max(b.Dx(), b.Dy())
	w, h := b.Dx(), b.Dy()
	if side > MaxEditSide {
		w = max(1, w*MaxEditSide/side)
		h = max(1, h*MaxEditSide/side)
		side = MaxEditSide
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, side, side))
	offset := image.Pt((side-w)/2, (side-h)/2)
	target := image.Rectangle{Min: offset, Max: offset.Add(image.Pt(w, h))}
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(canvas, target, src, b.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(canvas, target, src, b, xdraw.Src, nil)
	}

	img, err := commands.EncodePNG(canvas)
	if err != nil {
		return nil, err
	}
	mask, err := commands.EncodePNG(image.NewNRGBA(image.Rect(0, 0, side, side)))
	if err != nil {
		return nil, err
	}
	return &editInput{image: img, mask: mask, side: side}, nil
}
