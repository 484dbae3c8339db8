package errors

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", NewError("bad").Mark(ErrValidation), http.StatusBadRequest},
		{"not_found", NewError("missing").Mark(ErrNotFound), http.StatusNotFound},
		{"same_plan", NewError("same").Mark(ErrSamePlan), http.StatusBadRequest},
		{"not_eligible", NewError("paused").Mark(ErrSubscriptionNotEligible), http.StatusUnprocessableEntity},
		{"period_mismatch", NewError("stale").Mark(ErrPeriodMismatch), http.StatusConflict},
		{"unmarked", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatusFromErr(tt.err))
		})
	}
}

func TestBuilderKeepsHintsAndMarks(t *testing.T) {
	err := NewErrorf("effective date %s outside period", "2024-05-01").
		WithHint("Pick a date inside the current billing period").
		WithReportableDetails(map[string]any{"effective_date": "2024-05-01"}).
		Mark(ErrInvalidEffectiveDate)

	assert.True(t, errors.Is(err, ErrInvalidEffectiveDate))
	assert.True(t, IsBillingRejection(err))
	assert.False(t, IsNotFound(err))
	assert.Contains(t, errors.GetAllHints(err), "Pick a date inside the current billing period")
}

func TestNewErrorResponse(t *testing.T) {
	body, err := json.Marshal(NewErrorResponse("Plan not found", map[string]any{}))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"message":"Plan not found"}}`, string(body))

	resp := NewErrorResponse("Invalid request", map[string]any{"field": "new_plan_id"})
	assert.False(t, resp.Success)
	assert.Equal(t, "new_plan_id", resp.Error.Details["field"])
}
