package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hdreventsza-arch/hrd-events/models"
	"github.com/hdreventsza-arch/hrd-events/services"
	"github.com/hdreventsza-arch/hrd-events/utils"

	"github.com/labstack/echo/v4"
)

type ApplicationHandler struct {
	store         *services.DraftStore
	jwtService    *services.JWTService
	turnstile     *services.TurnstileService
	submitTimeout time.Duration
	logger        *slog.Logger
}

func NewApplicationHandler(
	store *services.DraftStore,
	jwtService *services.JWTService,
	turnstile *services.TurnstileService,
	submitTimeout time.Duration,
	logger *slog.Logger,
) *ApplicationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplicationHandler{
		store:         store,
		jwtService:    jwtService,
		turnstile:     turnstile,
		submitTimeout: submitTimeout,
		logger:        logger,
	}
}

// Register mounts the draft routes. Everything below /applications/:id needs
// the draft token handed out on creation.
func (h *ApplicationHandler) Register(e *echo.Echo) {
	e.POST("/applications", h.HandleCreateDraft)

	g := e.Group("/applications/:id")
	g.Use(DraftTokenMiddleware(h.jwtService))
	g.GET("", h.HandleGetDraft)
	g.DELETE("", h.HandleDeleteDraft)
	g.PATCH("/fields", h.HandleSetFields)
	g.POST("/subjects/toggle", h.HandleToggleSubject)
	g.PUT("/consent", h.HandleSetConsent)
	g.POST("/files/:slot", h.HandleAttachFile)
	g.DELETE("/files/:slot", h.HandleRemoveFile)
	g.POST("/submit", h.HandleSubmit)
	g.POST("/reset", h.HandleReset)
}

type fileView struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type draftView struct {
	ID     string                    `json:"id"`
	Record models.ApplicationRecord  `json:"record"`
	Files  map[models.Slot]*fileView `json:"files"`
	State  models.SubmissionState    `json:"state"`
}

func newFileView(f *models.AttachedFile) *fileView {
	if f == nil {
		return nil
	}
	return &fileView{Name: f.Name, Type: f.Type, Size: f.Size}
}

func newDraftView(form *services.Form) draftView {
	snap := form.Snapshot()
	files := make(map[models.Slot]*fileView, len(models.Slots))
	for _, slot := range models.Slots {
		files[slot] = newFileView(snap.Files.Get(slot))
	}
	if snap.Record.Subjects == nil {
		snap.Record.Subjects = []string{}
	}
	return draftView{ID: form.ID(), Record: snap.Record, Files: files, State: snap.State}
}

func (h *ApplicationHandler) draft(c echo.Context) (*services.Form, error) {
	form, err := h.store.Get(c.Param("id"))
	if err != nil {
		return nil, utils.ErrorResponse(c, http.StatusNotFound, "Application draft not found", nil)
	}
	return form, nil
}

func (h *ApplicationHandler) HandleCreateDraft(c echo.Context) error {
	var req models.CreateDraftRequest
	if err := c.Bind(&req); err != nil {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err.Error())
	}

	ok, err := h.turnstile.VerifyToken(c.Request().Context(), req.TurnstileToken, c.RealIP())
	if err != nil {
		h.logger.Error("turnstile verification failed", "error", err)
		return utils.ErrorResponse(c, http.StatusBadGateway, "Failed to verify Turnstile token", nil)
	}
	if !ok {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Invalid Turnstile token", nil)
	}

	form := h.store.Create()
	token, expiresAt, err := h.jwtService.GenerateDraftToken(form.ID())
	if err != nil {
		_ = h.store.Delete(form.ID())
		return utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to generate draft token", err.Error())
	}

	h.logger.Info("draft created", "draft_id", form.ID())
	return utils.SuccessResponse(c, "Application draft created successfully", map[string]interface{}{
		"draft":      newDraftView(form),
		"draftToken": token,
		"expiresIn":  int64(time.Until(expiresAt).Seconds()),
	})
}

func (h *ApplicationHandler) HandleGetDraft(c echo.Context) error {
	form, err := h.draft(c)
	if form == nil {
		return err
	}
	return utils.SuccessResponse(c, "Application draft retrieved successfully", newDraftView(form))
}

func (h *ApplicationHandler) HandleDeleteDraft(c echo.Context) error {
	if err := h.store.Delete(c.Param("id")); err != nil {
		return utils.ErrorResponse(c, http.StatusNotFound, "Application draft not found", nil)
	}
	return utils.SuccessResponse(c, "Application draft discarded", nil)
}

func (h *ApplicationHandler) HandleSetFields(c echo.Context) error {
	form, err := h.draft(c)
	if form == nil {
		return err
	}

	// decoded directly: Bind would also copy the :id path param into the map
	raw := map[string]json.RawMessage{}
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Invalid input format", err.Error())
	}

	fields := make(map[string]string, len(raw))
	var invalid []utils.ValidationError
	for name, value := range raw {
		var scratch models.ApplicationRecord
		if scratch.SetField(name, "") != nil {
			invalid = append(invalid, utils.ValidationError{Field: name, Message: "Unknown field"})
			continue
		}
		text, ok := fieldText(value)
		if !ok {
			invalid = append(invalid, utils.ValidationError{Field: name, Message: "Must be a string or a number"})
			continue
		}
		fields[name] = text
	}
	if len(invalid) > 0 {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Validation failed", invalid)
	}

	for name, value := range fields {
		if err := form.SetField(name, value); err != nil {
			return h.formError(c, err)
		}
	}
	return utils.SuccessResponse(c, "Application updated", newDraftView(form))
}

// fieldText accepts a JSON string, or a JSON number kept as its literal text
// so "experience": 5 reads the same as "experience": "5".
func fieldText(raw json.RawMessage) (string, bool) {
	if string(raw) == "null" {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, true
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String(), true
	}
	return "", false
}

func (h *ApplicationHandler) HandleToggleSubject(c echo.Context) error {
	form, err := h.draft(c)
	if form == nil {
		return err
	}

	var req models.ToggleSubjectRequest
	if err := c.Bind(&req); err != nil {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Invalid input format", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	form.ToggleSubject(req.Subject)
	return utils.SuccessResponse(c, "Subjects updated", newDraftView(form))
}

func (h *ApplicationHandler) HandleSetConsent(c echo.Context) error {
	form, err := h.draft(c)
	if form == nil {
		return err
	}

	var req models.ConsentRequest
	if err := c.Bind(&req); err != nil {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Invalid input format", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	form.SetConsent(*req.Consent)
	return utils.SuccessResponse(c, "Consent updated", newDraftView(form))
}

func (h *ApplicationHandler) HandleRemoveFile(c echo.Context) error {
	form, err := h.draft(c)
	if form == nil {
		return err
	}

	slot := models.Slot(c.Param("slot"))
	if !slot.Valid() {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Unknown document slot", slot)
	}

	form.RemoveFile(slot)
	return utils.SuccessResponse(c, "File removed", newDraftView(form))
}

// HandleSubmit runs the submission to completion even if the caller goes
// away; an in-flight submission cannot be cancelled.
func (h *ApplicationHandler) HandleSubmit(c echo.Context) error {
	form, err := h.draft(c)
	if form == nil {
		return err
	}

	ctx := context.WithoutCancel(c.Request().Context())
	if h.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.submitTimeout)
		defer cancel()
	}

	state, err := form.Submit(ctx)
	if err != nil {
		return h.formError(c, err)
	}
	if state.Status == models.StatusFailed {
		return utils.ErrorResponseWithData(c, http.StatusUnprocessableEntity, state.Message, newDraftView(form))
	}
	return utils.SuccessResponse(c, "Application submitted successfully", newDraftView(form))
}

func (h *ApplicationHandler) HandleReset(c echo.Context) error {
	form, err := h.draft(c)
	if form == nil {
		return err
	}
	if err := form.Reset(); err != nil {
		return h.formError(c, err)
	}
	return utils.SuccessResponse(c, "Application form reset", newDraftView(form))
}

func (h *ApplicationHandler) formError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrSubmissionInFlight):
		return utils.ErrorResponse(c, http.StatusConflict, "Your application is already being submitted", nil)
	case errors.Is(err, services.ErrAlreadySubmitted):
		return utils.ErrorResponse(c, http.StatusConflict, "Application already submitted", nil)
	case errors.Is(err, services.ErrFormClosed):
		return utils.ErrorResponse(c, http.StatusGone, "Application draft is no longer available", nil)
	case errors.Is(err, models.ErrUnknownField):
		return utils.ErrorResponse(c, http.StatusBadRequest, "Unknown field", nil)
	}
	h.logger.Error("unexpected form error", "error", err)
	return utils.ErrorResponse(c, http.StatusInternalServerError, "Unexpected error", nil)
}

func validationFailed(c echo.Context, err error) error {
	if he, ok := err.(*echo.HTTPError); ok {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Validation failed", he.Message)
	}
	return utils.ErrorResponse(c, http.StatusBadRequest, "Validation failed", err.Error())
}
