package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

const (
	equipmentTable   = "equipment"
	equipmentColumns = `id, name, serial_number, department, location, default_team_id, default_technician_id,
        purchase_date, warranty_expires_on, is_scrapped, created_at, updated_at`
)

// EquipmentFilter narrows equipment listings.
type EquipmentFilter struct {
	TeamID          *string
	Department      *string
	IncludeScrapped bool
	Limit           int
	Offset          int
}

// EquipmentRepository persists equipment.
type EquipmentRepository interface {
	WithTx(tx pgx.Tx) EquipmentRepository
	Create(ctx context.Context, equipment *domain.Equipment) error
	GetByID(ctx context.Context, id string) (*domain.Equipment, error)
	List(ctx context.Context, filter EquipmentFilter) ([]domain.Equipment, error)
	// MarkScrapped sets the scrap flag and reports whether this call changed it.
	MarkScrapped(ctx context.Context, id string) (bool, error)
	CountOpenRequests(ctx context.Context, id string) (int, error)
}

type equipmentRepository struct {
	db Querier
}

// NewEquipmentRepository builds repository.
func NewEquipmentRepository(pool *pgxpool.Pool) EquipmentRepository {
	return &equipmentRepository{db: pool}
}

func (r *equipmentRepository) WithTx(tx pgx.Tx) EquipmentRepository {
	return &equipmentRepository{db: tx}
}

func (r *equipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	query, args, err := psql.Insert(equipmentTable).
		Columns("name", "serial_number", "department", "location", "default_team_id",
			"default_technician_id", "purchase_date", "warranty_expires_on").
		Values(e.Name, e.SerialNumber, e.Department, e.Location, e.DefaultTeamID,
			e.DefaultTechnicianID, e.PurchaseDate, e.WarrantyExpiresOn).
		Suffix("RETURNING id, is_scrapped, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build equipment insert: %w", err)
	}
	return r.db.QueryRow(ctx, query, args...).Scan(&e.ID, &e.IsScrapped, &e.CreatedAt, &e.UpdatedAt)
}

func (r *equipmentRepository) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	query, args, err := psql.Select(equipmentColumns).From(equipmentTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build equipment query: %w", err)
	}
	return scanEquipment(r.db.QueryRow(ctx, query, args...))
}

func (r *equipmentRepository) List(ctx context.Context, filter EquipmentFilter) ([]domain.Equipment, error) {
	query, args, err := buildEquipmentList(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build equipment list: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func buildEquipmentList(filter EquipmentFilter) sq.SelectBuilder {
	lim, off := normalizePage(filter.Limit, filter.Offset)
	builder := psql.Select(equipmentColumns).From(equipmentTable)
	if filter.TeamID != nil {
		builder = builder.Where(sq.Eq{"default_team_id": *filter.TeamID})
	}
	if filter.Department != nil {
		builder = builder.Where(sq.ILike{"department": *filter.Department})
	}
	if !filter.IncludeScrapped {
		builder = builder.Where(sq.Eq{"is_scrapped": false})
	}
	return builder.OrderBy("name ASC").Limit(lim).Offset(off)
}

func (r *equipmentRepository) MarkScrapped(ctx context.Context, id string) (bool, error) {
	cmd, err := r.db.Exec(ctx,
		`UPDATE equipment SET is_scrapped=TRUE, updated_at=NOW() WHERE id=$1 AND is_scrapped=FALSE`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *equipmentRepository) CountOpenRequests(ctx context.Context, id string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From(requestTable).
		Where(sq.Eq{"equipment_id": id, "status": []string{
			string(domain.RequestStatusNew),
			string(domain.RequestStatusInProgress),
		}}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build open request count: %w", err)
	}
	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanEquipment(row pgx.Row) (*domain.Equipment, error) {
	var e domain.Equipment
	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.SerialNumber,
		&e.Department,
		&e.Location,
		&e.DefaultTeamID,
		&e.DefaultTechnicianID,
		&e.PurchaseDate,
		&e.WarrantyExpiresOn,
		&e.IsScrapped,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
