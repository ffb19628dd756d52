package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ScheduleHandler provides HTTP handlers for shift schedules.
type ScheduleHandler struct {
	scheduleService *services.ScheduleService
	views           enricher
}

func NewScheduleHandler(scheduleService *services.ScheduleService, names NameResolver) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		views:           enricher{names: names},
	}
}

// ScheduleRouter registers schedule routes on the given router.
func ScheduleRouter(
	r chi.Router,
	scheduleService *services.ScheduleService,
	names NameResolver,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewScheduleHandler(scheduleService, names)

	r.Use(authMiddleware)
	r.With(requireAdmin).Post("/", handler.CreateSchedule)
	r.Get("/", handler.ListSchedules)
	r.Get("/calendar/{year}/{month}", handler.Calendar)
	r.With(requireAdmin).Delete("/batch-delete", handler.BatchDelete)
	r.Route("/{scheduleID}", func(r chi.Router) {
		r.With(requireAdmin).Put("/", handler.UpdateSchedule)
		r.With(requireAdmin).Delete("/", handler.DeleteSchedule)
	})
}

type CreateScheduleRequest struct {
	Date      *types.Date `json:"date" validate:"required"`
	StudentID int         `json:"student_id" validate:"required,gt=0"`
	TimeSlot  string      `json:"time_slot" validate:"required,max=20"`
	Location  *string     `json:"location" validate:"omitempty,max=50"`
	Notes     *string     `json:"notes" validate:"omitempty,max=200"`
}

type UpdateScheduleRequest struct {
	StudentID types.Nullable[int]    `json:"student_id" validate:"omitempty,gt=0"`
	TimeSlot  types.Nullable[string] `json:"time_slot" validate:"omitempty,max=20"`
	Location  types.Nullable[string] `json:"location" validate:"omitempty,max=50"`
	Notes     types.Nullable[string] `json:"notes" validate:"omitempty,max=200"`
}

func (req UpdateScheduleRequest) patch() (types.SchedulePatch, error) {
	err := rejectNulls(
		nullField{"student_id", req.StudentID.IsNull()},
		nullField{"time_slot", req.TimeSlot.IsNull()},
	)
	return types.SchedulePatch{
		StudentID: req.StudentID.Value,
		TimeSlot:  req.TimeSlot.Value,
		Location:  req.Location,
		Notes:     req.Notes,
	}, err
}

type BatchDeleteResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	var req CreateScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.scheduleService.Create(r.Context(), acc, types.Schedule{
		Date:      *req.Date,
		StudentID: req.StudentID,
		TimeSlot:  req.TimeSlot,
		Location:  req.Location,
		Notes:     req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp, err := h.views.schedule(r.Context(), created)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}

	var (
		filter types.ScheduleFilter
		err    error
	)
	if filter.StartDate, err = queryDate(r, "start_date"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.EndDate, err = queryDate(r, "end_date"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.StudentID, err = queryInt(r, "student_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	schedules, err := h.scheduleService.List(r.Context(), acc, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.views.schedules(r.Context(), schedules)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ScheduleHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}

	days, err := h.scheduleService.Calendar(r.Context(), acc, year, time.Month(month))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.views.calendar(r.Context(), days)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "scheduleID")
	if !ok {
		return
	}
	var req UpdateScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch, err := req.patch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.scheduleService.Update(r.Context(), acc, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.views.schedule(r.Context(), updated)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "scheduleID")
	if !ok {
		return
	}

	if err := h.scheduleService.Delete(r.Context(), acc, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Schedule deleted successfully"})
}

func (h *ScheduleHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	start, err := queryDate(r, "start_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := queryDate(r, "end_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if start == nil || end == nil {
		writeError(w, http.StatusBadRequest, "start_date and end_date are required")
		return
	}

	deleted, err := h.scheduleService.BatchDelete(r.Context(), acc, *start, *end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchDeleteResponse{
		Message: fmt.Sprintf("Deleted %d schedules", deleted),
		Deleted: deleted,
	})
}
