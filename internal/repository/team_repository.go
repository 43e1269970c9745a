package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

const teamColumns = `t.id, t.name, t.description,
        COALESCE(ARRAY(SELECT tm.user_id::text FROM team_members tm WHERE tm.team_id = t.id ORDER BY tm.created_at, tm.user_id), '{}') AS member_ids,
        t.created_at, t.updated_at`

// TeamRepository manages persistence for maintenance teams and their members.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.MaintenanceTeam) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceTeam, error)
	List(ctx context.Context) ([]domain.MaintenanceTeam, error)
	AddMember(ctx context.Context, teamID, userID string) error
	RemoveMember(ctx context.Context, teamID, userID string) error
}

type teamRepository struct {
	db Querier
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{db: pool}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.MaintenanceTeam) error {
	const query = `
        INSERT INTO maintenance_teams (name, description)
        VALUES ($1,$2)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, team.Name, team.Description).
		Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceTeam, error) {
	query, args, err := psql.Select(teamColumns).From("maintenance_teams t").Where(sq.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build team query: %w", err)
	}
	return scanTeam(r.db.QueryRow(ctx, query, args...))
}

func (r *teamRepository) List(ctx context.Context) ([]domain.MaintenanceTeam, error) {
	query, args, err := psql.Select(teamColumns).From("maintenance_teams t").OrderBy("t.name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build team list: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MaintenanceTeam
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *team)
	}
	return result, rows.Err()
}

func (r *teamRepository) AddMember(ctx context.Context, teamID, userID string) error {
	const query = `
        INSERT INTO team_members (team_id, user_id) VALUES ($1,$2)
        ON CONFLICT (team_id, user_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, teamID, userID)
	return err
}

func (r *teamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM team_members WHERE team_id=$1 AND user_id=$2`, teamID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTeam(row pgx.Row) (*domain.MaintenanceTeam, error) {
	var team domain.MaintenanceTeam
	if err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.MemberIDs,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}
