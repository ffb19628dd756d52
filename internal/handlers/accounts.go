package handlers

import (
	"net/http"
	"strings"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// AccountHandler provides HTTP handlers for student accounts.
type AccountHandler struct {
	accountService *services.AccountService
}

func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// AccountRouter registers account routes on the given router. Every route
// requires authentication.
func AccountRouter(r chi.Router, accountService *services.AccountService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewAccountHandler(accountService)

	r.Use(authMiddleware)
	r.With(requireAdmin).Post("/", handler.CreateAccount)
	r.Get("/", handler.ListAccounts)
	r.Post("/change-password", handler.ChangePassword)
	r.Route("/{accountID}", func(r chi.Router) {
		r.Get("/", handler.GetAccount)
		r.Put("/", handler.UpdateAccount)
		r.With(requireAdmin).Put("/reset-password", handler.ResetPassword)
		r.With(requireAdmin).Put("/admin", handler.SetAdmin)
		r.With(requireAdmin).Delete("/", handler.DeleteAccount)
	})
}

type CreateAccountRequest struct {
	Name       string  `json:"name" validate:"required,max=50"`
	Username   string  `json:"username" validate:"required,max=50"`
	Password   string  `json:"password" validate:"required,max=72"`
	IsAdmin    bool    `json:"is_admin"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	Email      *string `json:"email" validate:"omitempty,email,max=100"`
	Department *string `json:"department" validate:"omitempty,max=50"`
	ClassName  *string `json:"class_name" validate:"omitempty,max=50"`
	Gender     *string `json:"gender" validate:"omitempty,max=10"`
}

type UpdateAccountRequest struct {
	Name          types.Nullable[string] `json:"name" validate:"omitempty,min=1,max=50"`
	Phone         types.Nullable[string] `json:"phone" validate:"omitempty,max=20"`
	Email         types.Nullable[string] `json:"email" validate:"omitempty,email,max=100"`
	Department    types.Nullable[string] `json:"department" validate:"omitempty,max=50"`
	ClassName     types.Nullable[string] `json:"class_name" validate:"omitempty,max=50"`
	Gender        types.Nullable[string] `json:"gender" validate:"omitempty,max=10"`
	IsAdmin       types.Nullable[bool]   `json:"is_admin"`
	IsPasswordSet types.Nullable[bool]   `json:"is_password_set"`
}

func (req UpdateAccountRequest) patch() (types.AccountPatch, error) {
	err := rejectNulls(
		nullField{"name", req.Name.IsNull()},
		nullField{"is_admin", req.IsAdmin.IsNull()},
		nullField{"is_password_set", req.IsPasswordSet.IsNull()},
	)
	return types.AccountPatch{
		Name:          req.Name.Value,
		Phone:         req.Phone,
		Email:         req.Email,
		Department:    req.Department,
		ClassName:     req.ClassName,
		Gender:        req.Gender,
		IsAdmin:       req.IsAdmin.Value,
		IsPasswordSet: req.IsPasswordSet.Value,
	}, err
}

type PasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,max=72"`
}

type SetAdminRequest struct {
	IsAdmin *bool `json:"is_admin" validate:"required"`
}

type DeleteAccountResponse struct {
	Message string              `json:"message"`
	Removed types.CascadeResult `json:"removed"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	var req CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.accountService.Create(r.Context(), acc, types.NewAccount{
		Name:     req.Name,
		Login:    req.Username,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
		Profile: types.AccountProfile{
			Phone:      req.Phone,
			Email:      req.Email,
			Department: req.Department,
			ClassName:  req.ClassName,
			Gender:     req.Gender,
		},
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountService.List(r.Context(), acc, strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "accountID")
	if !ok {
		return
	}

	found, err := h.accountService.Get(r.Context(), acc, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "accountID")
	if !ok {
		return
	}
	var req UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch, err := req.patch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.accountService.Update(r.Context(), acc, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "accountID")
	if !ok {
		return
	}
	var req PasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accountService.ResetPassword(r.Context(), acc, id, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}

func (h *AccountHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "accountID")
	if !ok {
		return
	}
	var req SetAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.accountService.SetAdmin(r.Context(), acc, id, *req.IsAdmin)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "accountID")
	if !ok {
		return
	}

	removed, err := h.accountService.Delete(r.Context(), acc, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteAccountResponse{
		Message: "Student and related records deleted successfully",
		Removed: removed,
	})
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	var req PasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accountService.ChangeOwnPassword(r.Context(), acc, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}
