package commands

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/jo-hoe/conceptcheck/internal/backend/commandstructure"
	xdraw "golang.org/x/image/draw"
)

// ResizeCommand shrinks an image to fit within maxWidth x maxHeight, keeping its aspect ratio.
// Images that already fit are returned unchanged. With smooth=false pixels are
// sampled nearest-neighbor instead of Catmull-Rom.
type ResizeCommand struct {
	name      string
	maxWidth  int
	maxHeight int
	scaler    xdraw.Scaler
}

func NewResizeCommand(params map[string]any) (commandstructure.Command, error) {
	w := commandstructure.GetIntParam(params, "maxWidth", 0)
	h := commandstructure.GetIntParam(params, "maxHeight", 0)
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("maxWidth and maxHeight must not be negative, got %dx%d", w, h)
	}
	if w == 0 && h == 0 {
		return nil, fmt.Errorf("at least one of maxWidth or maxHeight is required")
	}
	var scaler xdraw.Scaler = xdraw.CatmullRom
	if !commandstructure.GetBoolParam(params, "smooth", true) {
		scaler = xdraw.NearestNeighbor
	}
	return &ResizeCommand{name: "ResizeCommand", maxWidth: w, maxHeight: h, scaler: scaler}, nil
}

func (c *ResizeCommand) Name() string {
	return c.name
}

func (c *ResizeCommand) Execute(imageData []byte) ([]byte, error) {
	img, err := decodePNG(imageData)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), c.maxWidth, c.maxHeight)
	if w == b.Dx() && h == b.Dy() {
		return imageData, nil
	}
	slog.Debug("resizing image", "from_width", b.Dx(), "from_height", b.Dy(), "to_width", w, "to_height", h)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	c.scaler.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return EncodePNG(dst)
}

// fitWithin scales (w, h) down so neither side exceeds a non-zero limit.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
	}
	if scale >= 1.0 {
		return w, h
	}
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return nw, nh
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("ResizeCommand", NewResizeCommand); err != nil {
		panic(fmt.Sprintf("failed to register ResizeCommand: %v", err))
	}
}
