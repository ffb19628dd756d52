package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := validateStruct(&CreateTodoRequest{Priority: "urgent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "priority must be one of low, medium, high")

	err = validateStruct(&CreateScheduleRequest{TimeSlot: strings.Repeat("x", 21)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date is required")
	assert.Contains(t, err.Error(), "student_id is required")
	assert.Contains(t, err.Error(), "time_slot must be at most 20 characters")

	err = validateStruct(&UpdateScheduleRequest{StudentID: types.Some(0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "student_id must be greater than 0")

	err = validateStruct(&UpdateScheduleRequest{Location: types.Some(strings.Repeat("x", 51))})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location must be at most 50 characters")
	assert.NoError(t, validateStruct(&UpdateScheduleRequest{Location: types.Null[string]()}))

	assert.NoError(t, validateStruct(&PasswordRequest{NewPassword: "x"}))
	err = validateStruct(&PasswordRequest{NewPassword: strings.Repeat("x", 73)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "new_password must be at most 72 characters")
}

func TestUpdateRequestNullHandling(t *testing.T) {
	var todo UpdateTodoRequest
	require.NoError(t, json.Unmarshal([]byte(`{"assigned_to": null, "priority": "high"}`), &todo))
	patch, err := todo.patch()
	require.NoError(t, err)
	assert.True(t, patch.AssignedTo.IsNull())
	assert.False(t, patch.Content.Set)
	assert.Nil(t, patch.Title)
	require.NotNil(t, patch.Priority)
	assert.Equal(t, "high", *patch.Priority)

	var untitled UpdateTodoRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title": null}`), &untitled))
	_, err = untitled.patch()
	assert.EqualError(t, err, "title cannot be null")

	var schedule UpdateScheduleRequest
	require.NoError(t, json.Unmarshal([]byte(`{"location": null, "notes": "bring keys"}`), &schedule))
	sp, err := schedule.patch()
	require.NoError(t, err)
	assert.True(t, sp.Location.IsNull())
	assert.Equal(t, types.Some("bring keys"), sp.Notes)

	var reslot UpdateScheduleRequest
	require.NoError(t, json.Unmarshal([]byte(`{"time_slot": null}`), &reslot))
	_, err = reslot.patch()
	assert.EqualError(t, err, "time_slot cannot be null")

	var account UpdateAccountRequest
	require.NoError(t, json.Unmarshal([]byte(`{"phone": null, "is_admin": null}`), &account))
	_, err = account.patch()
	assert.EqualError(t, err, "is_admin cannot be null")
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"not found", &services.Error{Kind: services.ErrNotFound, Message: "Todo not found"}, http.StatusNotFound, "Todo not found"},
		{"forbidden", &services.Error{Kind: services.ErrForbidden, Message: "Not enough permissions"}, http.StatusForbidden, "Not enough permissions"},
		{"conflict", &services.Error{Kind: services.ErrConflict, Message: "taken"}, http.StatusConflict, "taken"},
		{"invalid", &services.Error{Kind: services.ErrInvalidInput, Message: "bad"}, http.StatusBadRequest, "bad"},
		{"internal", assert.AnError, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, `{"detail":"`+tt.detail+`"}`, rec.Body.String())
		})
	}

	rec := httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil),
		&services.Error{Kind: services.ErrUnauthenticated, Message: "Could not validate credentials"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := bearerToken(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "Basic abc")
	_, err = bearerToken(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "bearer  tok.en ")
	token, err := bearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "tok.en", token)
}
