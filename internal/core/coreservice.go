package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jo-hoe/conceptcheck/internal/backend/aiedit"
	"github.com/jo-hoe/conceptcheck/internal/backend/cache"
	"github.com/jo-hoe/conceptcheck/internal/backend/commands"
	"github.com/jo-hoe/conceptcheck/internal/backend/commandstructure"
	"github.com/jo-hoe/conceptcheck/internal/backend/database"
	"github.com/jo-hoe/conceptcheck/internal/feedback"
)

// MissingResourceError means the concept image could not be loaded. It is fatal at startup.
type MissingResourceError struct {
	Path string
	Err  error
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("concept image %q unavailable: %v", e.Path, e.Err)
}

func (e *MissingResourceError) Unwrap() error {
	return e.Err
}

type CoreService struct {
	config  *ServiceConfig
	variant feedback.Variant

	store    database.ResponseStore
	previews cache.PreviewCache
	pipeline *commandstructure.CommandInvoker
	editor   aiedit.Editor
	fonts    *commands.FontSource

	concept       image.Image
	conceptPNG    []byte
	conceptDigest string

	ids         feedback.IDGenerator
	now         func() time.Time
	reportError func(error)
}

// NewCoreService loads the concept image and opens the store, cache and editor described by config.
func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	variant, err := config.Variant()
	if err != nil {
		return nil, err
	}

	conceptImg, conceptPNG, err := loadConceptImage(config.ConceptImage)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(conceptPNG)

	cmds, err := commandstructure.DefaultRegistry.CreateAll(config.Preview.Commands)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview commands: %w", err)
	}

	store, err := database.NewResponseStore(config.Store.Type, config.Store.Location())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize response store: %w", err)
	}

	previews, err := cache.NewPreviewCache(config.Cache.Type, config.Cache.Addr, config.Cache.TTL)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize preview cache: %w", err)
	}

	var editor aiedit.Editor
	if config.AIEdit.Enabled {
		editor = aiedit.NewOpenAIEditor(config.AIEdit.EditorConfig())
	}
	pipeline := commandstructure.NewCommandInvoker(cmds)

	slog.Info("core service initialized",
		"variant", variant.Name,
		"concept_width", conceptImg.Bounds().Dx(),
		"concept_height", conceptImg.Bounds().Dy(),
		"store", config.Store.Type,
		"cache", config.Cache.Type,
		"ai_edit", editor != nil,
		"preview_commands", pipeline.Len())

	return &CoreService{
		config:        config,
		variant:       variant,
		store:         store,
		previews:      previews,
		pipeline:      pipeline,
		editor:        editor,
		fonts:         commands.NewFontSource(config.Font.Path),
		concept:       conceptImg,
		conceptPNG:    conceptPNG,
		conceptDigest: hex.EncodeToString(digest[:]),
		ids:           feedback.UUIDGenerator{},
		now:           time.Now,
		reportError:   func(err error) { sentry.CaptureException(err) },
	}, nil
}

func loadConceptImage(c ConceptImage) (image.Image, []byte, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, nil, &MissingResourceError{Path: c.Path, Err: err}
	}

	converter, err := commands.NewPngConverterCommand(map[string]any{
		"svgFallbackWidth":  c.SvgFallbackWidth,
		"svgFallbackHeight": c.SvgFallbackHeight,
	})
	if err != nil {
		return nil, nil, &MissingResourceError{Path: c.Path, Err: err}
	}
	pngData, err := converter.Execute(data)
	if err != nil {
		return nil, nil, &MissingResourceError{Path: c.Path, Err: err}
	}

	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, nil, &MissingResourceError{Path: c.Path, Err: err}
	}
	return img, pngData, nil
}

func (service *CoreService) Variant() feedback.Variant {
	return service.variant
}

// AIEditAvailable reports whether the form should offer AI edits.
func (service *CoreService) AIEditAvailable() bool {
	return service.variant.OfferAIEdit && service.editor != nil
}

// ConceptImagePNG returns the normalised concept image. Callers must not modify it.
func (service *CoreService) ConceptImagePNG() []byte {
	return service.conceptPNG
}

// Preview returns a cached preview or AI result image.
func (service *CoreService) Preview(ctx context.Context, key string) ([]byte, error) {
	return service.previews.Get(ctx, key)
}

// Responses returns every stored response in insertion order.
func (service *CoreService) Responses(ctx context.Context) ([]database.Row, error) {
	return service.store.ReadAll(ctx)
}

// Columns returns the column set records of the active variant flatten to.
func (service *CoreService) Columns() []string {
	return feedback.Columns(service.variant)
}

func (service *CoreService) Close() error {
	return errors.Join(service.store.Close(), service.previews.Close())
}

// previewKey is stable for identical concept image and overlay, so repeated edits share one entry.
func (service *CoreService) previewKey(overlay commands.Overlay) string {
	background := ""
	if c, ok := overlay.Background.Get(); ok {
		background = feedback.FormatHexColor(c)
	}
	text, hasText := overlay.Text.Get()

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%t\x00%q\x00%s\x00%s",
		service.conceptDigest, background, hasText, text, overlay.Position, service.fonts.Name())
	return hex.EncodeToString(h.Sum(nil))[:32]
}
