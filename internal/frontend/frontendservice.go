package frontend

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/conceptcheck/internal/backend/cache"
	"github.com/jo-hoe/conceptcheck/internal/core"
	"github.com/jo-hoe/conceptcheck/internal/feedback"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName   = "index.html"
	resultViewName = "result.html"
	mimePNG        = "image/png"
	defaultRating  = 5

	storeFailedMessage = "Your response could not be saved. Please try submitting again."
)

type FrontendService struct {
	coreService *core.CoreService
}

func NewFrontendService(coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
	}
}

type indexPage struct {
	Variant         feedback.Variant
	AIEditAvailable bool
	Positions       []string
	MinRating       int
	MaxRating       int
	DefaultRating   int
}

type resultView struct {
	Error         string
	RecordID      string
	PreviewURL    string
	PreviewError  string
	AIEditMessage string
	AIEditURL     string
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)
	e.POST("/htmx/submit", service.htmxSubmitHandler)
	e.GET("/htmx/concept", service.htmxConceptImageHandler)
	e.GET("/htmx/preview/:key", service.htmxPreviewHandler)

	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	positions := make([]string, 0, len(feedback.Positions()))
	for _, p := range feedback.Positions() {
		positions = append(positions, p.String())
	}
	return ctx.Render(http.StatusOK, MainPageName, indexPage{
		Variant:         service.coreService.Variant(),
		AIEditAvailable: service.coreService.AIEditAvailable(),
		Positions:       positions,
		MinRating:       feedback.MinRating,
		MaxRating:       feedback.MaxRating,
		DefaultRating:   defaultRating,
	})
}

func (service *FrontendService) htmxSubmitHandler(ctx echo.Context) error {
	var snapshot feedback.FormSnapshot
	if err := ctx.Bind(&snapshot); err != nil {
		slog.Warn("htmxSubmitHandler: failed to bind form", "status", http.StatusBadRequest, "error", err)
		return service.renderResult(ctx, http.StatusBadRequest, resultView{Error: "The form could not be read. Please check your input."})
	}
	if err := ctx.Validate(&snapshot); err != nil {
		slog.Warn("htmxSubmitHandler: invalid submission", "status", http.StatusBadRequest, "error", err)
		return service.renderResult(ctx, http.StatusBadRequest, resultView{Error: validationMessage(err)})
	}

	result, err := service.coreService.Submit(ctx.Request().Context(), snapshot)
	if errors.Is(err, core.ErrInvalidSubmission) {
		slog.Warn("htmxSubmitHandler: rejected submission", "status", http.StatusBadRequest, "error", err)
		return service.renderResult(ctx, http.StatusBadRequest, resultView{Error: err.Error()})
	}
	if err != nil {
		slog.Error("htmxSubmitHandler: failed to process submission", "status", http.StatusInternalServerError, "error", err)
		return service.renderResult(ctx, http.StatusInternalServerError, resultView{Error: "Your response could not be processed."})
	}

	if result.State == core.StoreFailed {
		return service.renderResult(ctx, http.StatusInternalServerError, resultView{Error: storeFailedMessage})
	}

	view := resultView{RecordID: result.RecordID}
	if result.PreviewKey != "" {
		view.PreviewURL = "/htmx/preview/" + result.PreviewKey
	} else if result.PreviewError != nil {
		view.PreviewError = "The modified image could not be rendered."
	}

	switch result.AIEdit.State {
	case core.AIEditSkipped, core.AIEditFailed:
		view.AIEditMessage = result.AIEdit.Message
	case core.AIEditOK:
		view.AIEditURL = result.AIEdit.URL
		if result.AIEdit.ImageKey != "" {
			view.AIEditURL = "/htmx/preview/" + result.AIEdit.ImageKey
		}
	}

	service.setNoCache(ctx)
	return service.renderResult(ctx, http.StatusOK, view)
}

func (service *FrontendService) renderResult(ctx echo.Context, status int, view resultView) error {
	return ctx.Render(status, resultViewName, view)
}

func (service *FrontendService) htmxConceptImageHandler(ctx echo.Context) error {
	ctx.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return ctx.Blob(http.StatusOK, mimePNG, service.coreService.ConceptImagePNG())
}

func (service *FrontendService) htmxPreviewHandler(ctx echo.Context) error {
	key := ctx.Param("key")
	data, err := service.coreService.Preview(ctx.Request().Context(), key)
	if errors.Is(err, cache.ErrNotFound) {
		slog.Warn("htmxPreviewHandler: preview not available",
			"status", http.StatusNotFound, "key", key)
		return ctx.String(http.StatusNotFound, "Preview not available")
	}
	if err != nil {
		slog.Error("htmxPreviewHandler: failed to load preview",
			"status", http.StatusInternalServerError, "key", key, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load preview")
	}

	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, mimePNG, data)
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

func validationMessage(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if msg, ok := httpErr.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
