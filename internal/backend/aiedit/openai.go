package aiedit

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jo-hoe/conceptcheck/internal/feedback"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// The client sends the edit in the DALL-E 2 form: image, mask, prompt, n, size and
// response_format. Model only selects the deployment on Azure-style base URLs.
const (
	DefaultModel          = openai.CreateImageModelDallE2
	DefaultSize           = openai.CreateImageSize1024x1024
	DefaultResponseFormat = openai.CreateImageResponseFormatURL
	DefaultTimeout        = 60 * time.Second
	DefaultRateInterval   = 2 * time.Second
	DefaultBurst          = 1
)

// Config tunes the OpenAI image edit call. Zero values fall back to the defaults above.
type Config struct {
	BaseURL        string
	Model          string
	Size           string
	ResponseFormat string
	Timeout        time.Duration
	RateInterval   time.Duration
	Burst          int
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Size == "" {
		c.Size = DefaultSize
	}
	if c.ResponseFormat == "" {
		c.ResponseFormat = DefaultResponseFormat
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateInterval <= 0 {
		c.RateInterval = DefaultRateInterval
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	return c
}

// OpenAIEditor calls the OpenAI /images/edits endpoint with the user's own key.
// Calls are throttled process-wide so a burst of submissions cannot flood the API.
type OpenAIEditor struct {
	config  Config
	limiter *rate.Limiter
}

func NewOpenAIEditor(config Config) *OpenAIEditor {
	config = config.withDefaults()
	return &OpenAIEditor{
		config:  config,
		limiter: rate.NewLimiter(rate.Every(config.RateInterval), config.Burst),
	}
}

func (e *OpenAIEditor) Edit(ctx context.Context, credential feedback.Credential, req Request) (*Result, error) {
	key := credential.Reveal()
	if strings.TrimSpace(key) == "" {
		return nil, &AIEditError{Op: "prepare", Err: errors.New("no API key provided")}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &AIEditError{Op: "prepare", Err: errors.New("no prompt provided")}
	}
	if len(req.Image) == 0 {
		return nil, &AIEditError{Op: "prepare", Err: errors.New("no image provided")}
	}

	input, err := prepareEditInput(req.Image)
	if err != nil {
		return nil, &AIEditError{Op: "prepare", Err: err}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, &AIEditError{Op: "throttle", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	clientConfig := openai.DefaultConfig(key)
	if e.config.BaseURL != "" {
		clientConfig.BaseURL = e.config.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	slog.Info("requesting image edit", "model", e.config.Model, "size", e.config.Size, "side", input.side, "image_bytes", len(input.image))
	resp, err := client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          openai.WrapReader(bytes.NewReader(input.image), "concept.png", "image/png"),
		Mask:           openai.WrapReader(bytes.NewReader(input.mask), "mask.png", "image/png"),
		Prompt:         req.Prompt,
		Model:          e.config.Model,
		N:              1,
		Size:           e.config.Size,
		ResponseFormat: e.config.ResponseFormat,
	})
	if err != nil {
		return nil, &AIEditError{Op: "request", Err: err}
	}
	return resultFrom(resp)
}

func resultFrom(resp openai.ImageResponse) (*Result, error) {
	if len(resp.Data) == 0 {
		return nil, &AIEditError{Op: "response", Err: errors.New("no image returned")}
	}
	data := resp.Data[0]
	if data.URL != "" {
		return &Result{URL: data.URL}, nil
	}
	if data.B64JSON != "" {
		img, err := base64.StdEncoding.DecodeString(data.B64JSON)
		if err != nil {
			return nil, &AIEditError{Op: "response", Err: fmt.Errorf("failed to decode image: %w", err)}
		}
		return &Result{Image: img}, nil
	}
	return nil, &AIEditError{Op: "response", Err: errors.New("response contains neither URL nor image data")}
}
