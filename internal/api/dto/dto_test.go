package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(RegisterRequest{Name: "Riley", Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, map[string]any{"email": "email", "password": "min"}, de.Details)

	assert.NoError(t, Validate(RegisterRequest{Name: "Riley", Email: "riley@example.com", Password: "long-enough"}))
}

func TestCompleteWorkRequest_DurationText(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{body: `{"duration_hours": 2.5}`, want: "2.5"},
		{body: `{"duration_hours": "3"}`, want: "3"},
		{body: `{"duration_hours": "abc"}`, want: "abc"},
		{body: `{"duration_hours": null}`, want: ""},
		{body: `{}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var req CompleteWorkRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.DurationText())
		})
	}
}
