package scheduler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kartikpanaganti/textlaire-sub002/internal/shared/apperror"
	"github.com/kartikpanaganti/textlaire-sub002/internal/shared/response"
)

type Handler struct {
	scheduler *Scheduler
}

func NewHandler(scheduler *Scheduler) *Handler {
	return &Handler{scheduler: scheduler}
}

type EnableRequest struct {
	DayOfMonth int `json:"day_of_month" binding:"required,min=1,max=28"`
	HourUTC    int `json:"hour_utc" binding:"min=0,max=23"`
}

type ConfigResponse struct {
	Enabled    bool    `json:"enabled"`
	DayOfMonth int     `json:"day_of_month"`
	HourUTC    int     `json:"hour_utc"`
	LastRunAt  *string `json:"last_run_at,omitempty"`
}

func configResponse(cfg Config) ConfigResponse {
	resp := ConfigResponse{
		Enabled:    cfg.Enabled,
		DayOfMonth: cfg.DayOfMonth,
		HourUTC:    cfg.HourUTC,
	}
	if cfg.LastRunAt != nil {
		s := cfg.LastRunAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.LastRunAt = &s
	}
	return resp
}

func (h *Handler) Status(c *gin.Context) {
	cfg, err := h.scheduler.Status(c.Request.Context())
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}
	response.Success(c, http.StatusOK, configResponse(cfg), nil)
}

func (h *Handler) Enable(c *gin.Context) {
	var req EnableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	cfg, err := h.scheduler.Enable(c.Request.Context(), req.DayOfMonth, req.HourUTC)
	if errors.Is(err, ErrInvalidSchedule) {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, err.Error(), nil)
		return
	}
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, configResponse(cfg), nil)
}

func (h *Handler) Disable(c *gin.Context) {
	cfg, err := h.scheduler.Disable(c.Request.Context())
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}
	response.Success(c, http.StatusOK, configResponse(cfg), nil)
}
