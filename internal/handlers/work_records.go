package handlers

import (
	"net/http"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// WorkRecordHandler provides HTTP handlers for work records.
type WorkRecordHandler struct {
	workRecordService *services.WorkRecordService
	views             enricher
}

func NewWorkRecordHandler(workRecordService *services.WorkRecordService, names NameResolver) *WorkRecordHandler {
	return &WorkRecordHandler{
		workRecordService: workRecordService,
		views:             enricher{names: names},
	}
}

// WorkRecordRouter registers work record routes on the given router.
func WorkRecordRouter(
	r chi.Router,
	workRecordService *services.WorkRecordService,
	names NameResolver,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewWorkRecordHandler(workRecordService, names)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateWorkRecord)
	r.Get("/", handler.ListWorkRecords)
	r.Route("/{workRecordID}", func(r chi.Router) {
		r.Get("/", handler.GetWorkRecord)
		r.Put("/", handler.UpdateWorkRecord)
		r.Delete("/", handler.DeleteWorkRecord)
	})
}

type CreateWorkRecordRequest struct {
	Date          *types.Date `json:"date" validate:"required"`
	StudentID     int         `json:"student_id" validate:"required,gt=0"`
	TimeSlot      *string     `json:"time_slot" validate:"omitempty,max=20"`
	Content       string      `json:"content" validate:"required"`
	HandoverNotes *string     `json:"handover_notes"`
	Status        string      `json:"status" validate:"omitempty,max=20"`
}

type UpdateWorkRecordRequest struct {
	TimeSlot      types.Nullable[string] `json:"time_slot" validate:"omitempty,max=20"`
	Content       types.Nullable[string] `json:"content" validate:"omitempty,min=1"`
	HandoverNotes types.Nullable[string] `json:"handover_notes"`
	Status        types.Nullable[string] `json:"status" validate:"omitempty,max=20"`
}

func (req UpdateWorkRecordRequest) patch() (types.WorkRecordPatch, error) {
	err := rejectNulls(
		nullField{"content", req.Content.IsNull()},
		nullField{"status", req.Status.IsNull()},
	)
	return types.WorkRecordPatch{
		TimeSlot:      req.TimeSlot,
		Content:       req.Content.Value,
		HandoverNotes: req.HandoverNotes,
		Status:        req.Status.Value,
	}, err
}

func (h *WorkRecordHandler) CreateWorkRecord(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	var req CreateWorkRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.workRecordService.Create(r.Context(), acc, types.WorkRecord{
		Date:          *req.Date,
		StudentID:     req.StudentID,
		TimeSlot:      req.TimeSlot,
		Content:       req.Content,
		HandoverNotes: req.HandoverNotes,
		Status:        req.Status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.views.workRecord(r.Context(), created)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *WorkRecordHandler) ListWorkRecords(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}

	var (
		filter types.WorkRecordFilter
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
	filter.Status = queryString(r, "status")

	records, err := h.workRecordService.List(r.Context(), acc, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.views.workRecords(r.Context(), records)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *WorkRecordHandler) GetWorkRecord(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "workRecordID")
	if !ok {
		return
	}

	record, err := h.workRecordService.Get(r.Context(), acc, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.views.workRecord(r.Context(), record)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *WorkRecordHandler) UpdateWorkRecord(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "workRecordID")
	if !ok {
		return
	}
	var req UpdateWorkRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch, err := req.patch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.workRecordService.Update(r.Context(), acc, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.views.workRecord(r.Context(), updated)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *WorkRecordHandler) DeleteWorkRecord(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "workRecordID")
	if !ok {
		return
	}

	if err := h.workRecordService.Delete(r.Context(), acc, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Work record deleted successfully"})
}
