package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

const (
	requestTable   = "maintenance_requests"
	requestColumns = `id, external_key, subject, request_type, status, equipment_id, assigned_team_id,
        assigned_technician_id, created_by_id, scheduled_date, due_date, duration_hours, created_at, updated_at`
)

// RequestScope restricts a listing to requests a technician created, is assigned to,
// or that belong to any of their teams.
type RequestScope struct {
	TechnicianID string
	TeamIDs      []string
}

// RequestFilter captures list parameters.
type RequestFilter struct {
	EquipmentID  *string
	TeamID       *string
	TechnicianID *string
	CreatedByID  *string
	Statuses     []domain.RequestStatus
	Types        []domain.RequestType
	Scope        *RequestScope
	Limit        int
	Offset       int
}

// RequestRepository encapsulates maintenance request persistence.
type RequestRepository interface {
	WithTx(tx pgx.Tx) RequestRepository
	Create(ctx context.Context, req *domain.MaintenanceRequest, keyPrefix string) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error)
	// UpdateIfStatus writes the workflow fields only while the stored status still equals expected.
	UpdateIfStatus(ctx context.Context, req *domain.MaintenanceRequest, expected domain.RequestStatus) error
	List(ctx context.Context, filter RequestFilter) ([]domain.MaintenanceRequest, uint64, error)
}

type requestRepository struct {
	db Querier
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{db: pool}
}

func (r *requestRepository) WithTx(tx pgx.Tx) RequestRepository {
	return &requestRepository{db: tx}
}

func (r *requestRepository) Create(ctx context.Context, req *domain.MaintenanceRequest, keyPrefix string) error {
	key := sq.Expr("? || '-' || LPAD(nextval('maintenance_request_key_seq')::text, 4, '0')", keyPrefix)
	query, args, err := psql.Insert(requestTable).
		Columns("external_key", "subject", "request_type", "status", "equipment_id", "assigned_team_id",
			"assigned_technician_id", "created_by_id", "scheduled_date", "due_date").
		Values(key, req.Subject, req.Type, req.Status, req.EquipmentID, req.AssignedTeamID,
			req.AssignedTechnicianID, req.CreatedByID, req.ScheduledDate, req.DueDate).
		Suffix("RETURNING id, external_key, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build request insert: %w", err)
	}
	return r.db.QueryRow(ctx, query, args...).Scan(&req.ID, &req.ExternalKey, &req.CreatedAt, &req.UpdatedAt)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	query, args, err := psql.Select(requestColumns).From(requestTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build request query: %w", err)
	}
	return scanRequest(r.db.QueryRow(ctx, query, args...))
}

func (r *requestRepository) UpdateIfStatus(ctx context.Context, req *domain.MaintenanceRequest, expected domain.RequestStatus) error {
	query, args, err := psql.Update(requestTable).
		Set("status", req.Status).
		Set("assigned_technician_id", req.AssignedTechnicianID).
		Set("duration_hours", req.DurationHours).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": req.ID, "status": expected}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build request update: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&req.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStaleStatus
		}
		return err
	}
	return nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.MaintenanceRequest, uint64, error) {
	countQuery, countArgs, err := applyRequestFilter(psql.Select("COUNT(*)").From(requestTable), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build request count: %w", err)
	}
	var total uint64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.MaintenanceRequest{}, 0, nil
	}

	query, args, err := buildRequestList(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build request list: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]domain.MaintenanceRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *req)
	}
	return result, total, rows.Err()
}

func buildRequestList(filter RequestFilter) sq.SelectBuilder {
	lim, off := normalizePage(filter.Limit, filter.Offset)
	return applyRequestFilter(psql.Select(requestColumns).From(requestTable), filter).
		OrderBy("created_at DESC", "id DESC").
		Limit(lim).
		Offset(off)
}

func applyRequestFilter(builder sq.SelectBuilder, filter RequestFilter) sq.SelectBuilder {
	if filter.EquipmentID != nil {
		builder = builder.Where(sq.Eq{"equipment_id": *filter.EquipmentID})
	}
	if filter.TeamID != nil {
		builder = builder.Where(sq.Eq{"assigned_team_id": *filter.TeamID})
	}
	if filter.TechnicianID != nil {
		builder = builder.Where(sq.Eq{"assigned_technician_id": *filter.TechnicianID})
	}
	if filter.CreatedByID != nil {
		builder = builder.Where(sq.Eq{"created_by_id": *filter.CreatedByID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		builder = builder.Where(sq.Eq{"request_type": types})
	}
	if filter.Scope != nil {
		scope := sq.Or{sq.Eq{"assigned_technician_id": filter.Scope.TechnicianID}}
		if len(filter.Scope.TeamIDs) > 0 {
			scope = append(scope, sq.Eq{"assigned_team_id": filter.Scope.TeamIDs})
		}
		scope = append(scope, sq.Eq{"created_by_id": filter.Scope.TechnicianID})
		builder = builder.Where(scope)
	}
	return builder
}

func scanRequest(row pgx.Row) (*domain.MaintenanceRequest, error) {
	var req domain.MaintenanceRequest
	if err := row.Scan(
		&req.ID,
		&req.ExternalKey,
		&req.Subject,
		&req.Type,
		&req.Status,
		&req.EquipmentID,
		&req.AssignedTeamID,
		&req.AssignedTechnicianID,
		&req.CreatedByID,
		&req.ScheduledDate,
		&req.DueDate,
		&req.DurationHours,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
