package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/resto-payroll/internal/domain/adjustment"
	"github.com/cmlabs-hris/resto-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AdjustmentHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	ListPending(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type adjustmentHandlerImpl struct {
	adjustmentService adjustment.AdjustmentService
}

func NewAdjustmentHandler(adjustmentService adjustment.AdjustmentService) AdjustmentHandler {
	return &adjustmentHandlerImpl{adjustmentService: adjustmentService}
}

func (h *adjustmentHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	category, err := adjustment.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req adjustment.CreateAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.Category = category

	result, err := h.adjustmentService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Adjustment recorded", result)
}

func (h *adjustmentHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter adjustment.PendingFilter

	if employeeID := query.Get("employee_id"); employeeID != "" {
		if !validator.IsValidUUID(employeeID) {
			response.BadRequest(w, "Invalid employee_id", nil)
			return
		}
		filter.EmployeeID = &employeeID
	}
	if c := query.Get("category"); c != "" {
		category, err := adjustment.ParseCategory(c)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		filter.Category = &category
	}

	result, err := h.adjustmentService.ListPending(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *adjustmentHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter adjustment.HistoryFilter

	if employeeID := query.Get("employee_id"); employeeID != "" {
		if !validator.IsValidUUID(employeeID) {
			response.BadRequest(w, "Invalid employee_id", nil)
			return
		}
		filter.EmployeeID = &employeeID
	}
	if c := query.Get("category"); c != "" {
		category, err := adjustment.ParseCategory(c)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		filter.Category = &category
	}
	if l := query.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 {
			response.BadRequest(w, "Invalid limit", nil)
			return
		}
		filter.Limit = limit
	}

	result, err := h.adjustmentService.ListHistory(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
