package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/jo-hoe/conceptcheck/internal/backend/commandstructure"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	svgStartTag  = regexp.MustCompile(`(?is)<svg\b[^>]*>`)
	svgSizeAttr  = regexp.MustCompile(`(?i)\s(width|height)\s*=\s*["']\s*([0-9]+(?:\.[0-9]+)?)`)
)

// HasPNGSignature reports whether data starts with the eight PNG magic bytes.
func HasPNGSignature(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

// PngConverterCommand normalises a concept image of any supported format into PNG.
// SVG input is rasterised onto a transparent canvas so alpha survives compositing.
type PngConverterCommand struct {
	name              string
	svgFallbackWidth  int
	svgFallbackHeight int
}

func NewPngConverterCommand(params map[string]any) (commandstructure.Command, error) {
	return &PngConverterCommand{
		name:              "PngConverterCommand",
		svgFallbackWidth:  commandstructure.GetIntParam(params, "svgFallbackWidth", 0),
		svgFallbackHeight: commandstructure.GetIntParam(params, "svgFallbackHeight", 0),
	}, nil
}

func (c *PngConverterCommand) Name() string {
	return c.name
}

func (c *PngConverterCommand) Execute(imageData []byte) ([]byte, error) {
	if HasPNGSignature(imageData) {
		slog.Debug("concept image already PNG", "bytes", len(imageData))
		return imageData, nil
	}

	if isSVGData(imageData) {
		return c.convertSVG(imageData)
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode concept image: %w", err)
	}
	slog.Debug("converting concept image to PNG",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return EncodePNG(img)
}

func (c *PngConverterCommand) convertSVG(data []byte) ([]byte, error) {
	w, h, ok := parseSvgExplicitSize(data)
	if !ok {
		w, h = c.svgFallbackWidth, c.svgFallbackHeight
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("SVG has no explicit size and no fallback size is configured")
		}
	}
	slog.Debug("rendering SVG concept image", "width", w, "height", h, "explicit", ok)

	img, err := renderSVG(data, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to render SVG to PNG: %w", err)
	}
	return EncodePNG(img)
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("PngConverterCommand", NewPngConverterCommand); err != nil {
		panic(fmt.Sprintf("failed to register PngConverterCommand: %v", err))
	}
}

// parseSvgExplicitSize reads width and height from the root <svg> tag.
// A viewBox alone is not treated as a pixel size.
func parseSvgExplicitSize(data []byte) (int, int, bool) {
	head := data
	if len(head) > 8192 {
		head = head[:8192]
	}
	tag := svgStartTag.Find(head)
	if tag == nil {
		return 0, 0, false
	}

	var w, h int
	for _, m := range svgSizeAttr.FindAllSubmatch(tag, -1) {
		v, err := strconv.ParseFloat(string(m[2]), 64)
		if err != nil || v < 1 {
			continue
		}
		switch string(bytes.ToLower(m[1])) {
		case "width":
			w = int(v)
		case "height":
			h = int(v)
		}
	}
	return w, h, w > 0 && h > 0
}

func isSVGData(data []byte) bool {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	head = bytes.ToLower(head)
	return bytes.Contains(head, []byte("<svg")) ||
		bytes.Contains(head, []byte("http://www.w3.org/2000/svg"))
}

func renderSVG(svgData []byte, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", w, h)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := createTargetCanvas(w, h, color.Transparent)
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return dst, nil
}
