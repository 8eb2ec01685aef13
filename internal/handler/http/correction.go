package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-correction-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CorrectionHandler interface {
	GetDraft(w http.ResponseWriter, r *http.Request)
	SetDates(w http.ResponseWriter, r *http.Request)
	SetBroadcastField(w http.ResponseWriter, r *http.Request)
	SetEntryField(w http.ResponseWriter, r *http.Request)
	ApplyBroadcastToAll(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
	Reset(w http.ResponseWriter, r *http.Request)

	Submit(w http.ResponseWriter, r *http.Request)

	AvailableDates(w http.ResponseWriter, r *http.Request)
	Overview(w http.ResponseWriter, r *http.Request)
	ListSubmissions(w http.ResponseWriter, r *http.Request)
}

type CorrectionHandlerImpl struct {
	correctionService correction.CorrectionService
}

func NewCorrectionHandler(correctionService correction.CorrectionService) CorrectionHandler {
	return &CorrectionHandlerImpl{
		correctionService: correctionService,
	}
}

// GetDraft implements CorrectionHandler.
func (h *CorrectionHandlerImpl) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.correctionService.GetDraft(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, draft)
}

// SetDates implements CorrectionHandler.
func (h *CorrectionHandlerImpl) SetDates(w http.ResponseWriter, r *http.Request) {
	var req correction.SetDatesRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SetDates decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	draft, err := h.correctionService.SetDates(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, draft)
}

// SetBroadcastField implements CorrectionHandler.
func (h *CorrectionHandlerImpl) SetBroadcastField(w http.ResponseWriter, r *http.Request) {
	var req correction.SetFieldRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SetBroadcastField decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	draft, err := h.correctionService.SetBroadcastField(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, draft)
}

// SetEntryField implements CorrectionHandler.
func (h *CorrectionHandlerImpl) SetEntryField(w http.ResponseWriter, r *http.Request) {
	var req correction.SetEntryFieldRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SetEntryField decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.Date = chi.URLParam(r, "date")

	draft, err := h.correctionService.SetEntryField(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, draft)
}

// ApplyBroadcastToAll implements CorrectionHandler.
func (h *CorrectionHandlerImpl) ApplyBroadcastToAll(w http.ResponseWriter, r *http.Request) {
	draft, err := h.correctionService.ApplyBroadcastToAll(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Applied to all selected dates", draft)
}

// Validate implements CorrectionHandler.
func (h *CorrectionHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	result, err := h.correctionService.Validate(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !result.Valid {
		response.ValidationError(w, result.Errors)
		return
	}

	response.Success(w, result)
}

// Reset implements CorrectionHandler.
func (h *CorrectionHandlerImpl) Reset(w http.ResponseWriter, r *http.Request) {
	draft, err := h.correctionService.Reset(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Draft cleared", draft)
}

// Submit implements CorrectionHandler. The message is the single aggregate
// text for the whole attempt.
func (h *CorrectionHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.correctionService.Submit(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !result.Success {
		response.Failure(w, result.Summary.Message, result)
		return
	}

	response.SuccessWithMessage(w, result.Summary.Message, result)
}

// AvailableDates implements CorrectionHandler.
func (h *CorrectionHandlerImpl) AvailableDates(w http.ResponseWriter, r *http.Request) {
	result, err := h.correctionService.AvailableDates(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Overview implements CorrectionHandler.
func (h *CorrectionHandlerImpl) Overview(w http.ResponseWriter, r *http.Request) {
	result, err := h.correctionService.Overview(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListSubmissions implements CorrectionHandler.
func (h *CorrectionHandlerImpl) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	var filter correction.ListSubmissionsFilter

	if limit := r.URL.Query().Get("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil {
			response.BadRequest(w, "Invalid limit", map[string]string{"limit": "limit must be a number"})
			return
		}
		filter.Limit = parsed
	}

	result, err := h.correctionService.ListSubmissions(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{Count: len(result.Submissions)})
}
