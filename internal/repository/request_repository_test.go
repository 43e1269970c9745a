package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestBuildRequestList(t *testing.T) {
	tests := []struct {
		name      string
		filter    RequestFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:     "no filter",
			filter:   RequestFilter{},
			wantArgs: nil,
		},
		{
			name:      "creator only",
			filter:    RequestFilter{CreatedByID: strPtr("u-1")},
			wantWhere: "WHERE created_by_id = $1",
			wantArgs:  []any{"u-1"},
		},
		{
			name: "statuses and types",
			filter: RequestFilter{
				Statuses: []domain.RequestStatus{domain.RequestStatusNew, domain.RequestStatusInProgress},
				Types:    []domain.RequestType{domain.RequestTypePreventive},
			},
			wantWhere: "WHERE status IN ($1,$2) AND request_type IN ($3)",
			wantArgs:  []any{"NEW", "IN_PROGRESS", "PREVENTIVE"},
		},
		{
			name:      "technician scope",
			filter:    RequestFilter{Scope: &RequestScope{TechnicianID: "u-2", TeamIDs: []string{"t-1", "t-2"}}},
			wantWhere: "WHERE (assigned_technician_id = $1 OR assigned_team_id IN ($2,$3) OR created_by_id = $4)",
			wantArgs:  []any{"u-2", "t-1", "t-2", "u-2"},
		},
		{
			name:      "technician scope without teams",
			filter:    RequestFilter{Scope: &RequestScope{TechnicianID: "u-2"}},
			wantWhere: "WHERE (assigned_technician_id = $1 OR created_by_id = $2)",
			wantArgs:  []any{"u-2", "u-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildRequestList(tt.filter).ToSql()
			require.NoError(t, err)
			assert.Contains(t, query, "FROM maintenance_requests")
			assert.Contains(t, query, "ORDER BY created_at DESC, id DESC LIMIT 50 OFFSET 0")
			if tt.wantWhere != "" {
				assert.Contains(t, query, tt.wantWhere)
			} else {
				assert.NotContains(t, query, "WHERE")
			}
			if tt.wantArgs == nil {
				assert.Empty(t, args)
				return
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildRequestList_Pagination(t *testing.T) {
	query, _, err := buildRequestList(RequestFilter{Limit: 10, Offset: 20}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "LIMIT 10 OFFSET 20")

	query, _, err = buildRequestList(RequestFilter{Limit: 10000, Offset: -5}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "LIMIT 50 OFFSET 0")
}

func TestBuildEquipmentList(t *testing.T) {
	query, args, err := buildEquipmentList(EquipmentFilter{}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE is_scrapped = $1")
	assert.Equal(t, []any{false}, args)

	query, args, err = buildEquipmentList(EquipmentFilter{TeamID: strPtr("t-1"), IncludeScrapped: true}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE default_team_id = $1")
	assert.NotContains(t, query, "is_scrapped =")
	assert.Equal(t, []any{"t-1"}, args)

	query, args, err = buildEquipmentList(EquipmentFilter{Department: strPtr("Production")}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "department ILIKE $1")
	assert.Equal(t, []any{"Production", false}, args)
}
