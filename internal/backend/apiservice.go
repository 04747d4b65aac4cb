package backend

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/conceptcheck/internal/core"
	"github.com/jo-hoe/conceptcheck/internal/feedback"
	"github.com/labstack/echo/v4"
)

// APIService exposes submissions and stored responses as JSON.
type APIService struct {
	coreService *core.CoreService
}

type AIEditResponse struct {
	State    string `json:"state"`
	Message  string `json:"message,omitempty"`
	URL      string `json:"url,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type SubmissionResponse struct {
	ID           string          `json:"id"`
	State        string          `json:"state"`
	PreviewURL   string          `json:"previewUrl,omitempty"`
	PreviewError string          `json:"previewError,omitempty"`
	AIEdit       *AIEditResponse `json:"aiEdit,omitempty"`
}

type ResponsesResponse struct {
	Variant   string              `json:"variant"`
	Columns   []string            `json:"columns"`
	Responses []map[string]string `json:"responses"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewAPIService(coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", s.probeHandler)

	api := e.Group("/api/v1")
	api.POST("/feedback", s.submitFeedbackHandler)
	api.GET("/feedback", s.listFeedbackHandler)
}

func (s *APIService) probeHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

func (s *APIService) submitFeedbackHandler(ctx echo.Context) error {
	var snapshot feedback.FormSnapshot
	if err := ctx.Bind(&snapshot); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed request body"})
	}
	if err := ctx.Validate(&snapshot); err != nil {
		return err
	}

	result, err := s.coreService.Submit(ctx.Request().Context(), snapshot)
	if errors.Is(err, core.ErrInvalidSubmission) {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if err != nil {
		slog.Error("submitFeedbackHandler: failed to process submission", "error", err)
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process submission"})
	}

	resp := SubmissionResponse{ID: result.RecordID, State: result.State.String()}
	if result.State == core.StoreFailed {
		return ctx.JSON(http.StatusInternalServerError, resp)
	}

	if result.PreviewKey != "" {
		resp.PreviewURL = "/htmx/preview/" + result.PreviewKey
	}
	if result.PreviewError != nil {
		resp.PreviewError = result.PreviewError.Error()
	}
	if result.AIEdit.State != core.AIEditNotRequested {
		resp.AIEdit = &AIEditResponse{
			State:   result.AIEdit.State.String(),
			Message: result.AIEdit.Message,
			URL:     result.AIEdit.URL,
		}
		if result.AIEdit.ImageKey != "" {
			resp.AIEdit.ImageURL = "/htmx/preview/" + result.AIEdit.ImageKey
		}
	}
	return ctx.JSON(http.StatusCreated, resp)
}

func (s *APIService) listFeedbackHandler(ctx echo.Context) error {
	rows, err := s.coreService.Responses(ctx.Request().Context())
	if err != nil {
		slog.Error("listFeedbackHandler: failed to read responses", "error", err)
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to read responses"})
	}

	out := ResponsesResponse{
		Variant:   s.coreService.Variant().Name,
		Columns:   s.coreService.Columns(),
		Responses: make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		m := make(map[string]string, len(row))
		for _, f := range row {
			m[f.Name] = f.Value
		}
		out.Responses = append(out.Responses, m)
	}
	return ctx.JSON(http.StatusOK, out)
}
