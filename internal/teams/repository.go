package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/db"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

// RepositoryPort defines data access methods for teams.
type RepositoryPort interface {
	Create(ctx context.Context, team *Team) error
	Get(ctx context.Context, id string) (*Team, error)
	GetBySlug(ctx context.Context, slug string) (*Team, error)
	List(ctx context.Context, req ListTeamsRequest) ([]Team, int, error)
	Update(ctx context.Context, id string, updates map[string]any) error
	Roster(ctx context.Context, teamID string) ([]RosterMember, error)
	RosterSize(ctx context.Context, teamID string) (int, error)
	GrantRole(ctx context.Context, userID string, a access.RoleAssignment) error
	RevokeRoles(ctx context.Context, userID, teamID string) error
	TransferOwnership(ctx context.Context, teamID, oldOwnerID, newOwnerID string) error
	Disband(ctx context.Context, teamID string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const teamColumns = `id, name, slug, tag, game, logo_url, region, owner_id, max_roster, created_at, updated_at`

// Create inserts the team, grants the owner role and records the owner's home
// team in one transaction.
func (r *Repository) Create(ctx context.Context, team *Team) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO teams (id, name, slug, tag, game, logo_url, region, owner_id, max_roster, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
			team.ID, team.Name, team.Slug, team.Tag, team.Game, team.LogoURL, team.Region, team.OwnerID, team.MaxRoster)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: team slug %q", httpx.ErrDuplicate, team.Slug)
			}
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO role_assignments (user_id, scope, role, scope_id, created_at)
			 VALUES ($1, $2, $3, $4, NOW())
			 ON CONFLICT DO NOTHING`,
			team.OwnerID, access.ScopeTeam, access.RoleTeamOwner, team.ID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE users SET team_id = $2, updated_at = NOW() WHERE id = $1`, team.OwnerID, team.ID)
		return err
	})
}

// Get fetches a team by id.
func (r *Repository) Get(ctx context.Context, id string) (*Team, error) {
	return scanTeam(r.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id))
}

// GetBySlug fetches a team by its URL slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Team, error) {
	return scanTeam(r.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE slug = $1`, slug))
}

// List returns teams matching the request filters.
func (r *Repository) List(ctx context.Context, req ListTeamsRequest) ([]Team, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR tag ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}
	if req.Game != "" {
		conditions = append(conditions, fmt.Sprintf("game = $%d", argPos))
		args = append(args, req.Game)
		argPos++
	}
	if req.Region != "" {
		conditions = append(conditions, fmt.Sprintf("region = $%d", argPos))
		args = append(args, req.Region)
		argPos++
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM teams %s ORDER BY name LIMIT $%d OFFSET $%d`,
		teamColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, 0, err
		}
		teams = append(teams, *t)
	}
	return teams, total, rows.Err()
}

// Update applies the given column updates.
func (r *Repository) Update(ctx context.Context, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	sets := make([]string, 0, len(updates)+1)
	args := []any{id}
	argPos := 2
	for col, val := range updates {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argPos))
		args = append(args, val)
		argPos++
	}
	sets = append(sets, "updated_at = NOW()")
	query := `UPDATE teams SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Roster returns users holding a team-scoped role on the team.
func (r *Repository) Roster(ctx context.Context, teamID string) ([]RosterMember, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ra.user_id, u.username, ra.role, ra.created_at
		 FROM role_assignments ra
		 JOIN users u ON u.id = ra.user_id
		 WHERE ra.scope = $1 AND ra.scope_id = $2
		 ORDER BY ra.created_at`,
		access.ScopeTeam, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []RosterMember
	for rows.Next() {
		var m RosterMember
		if err := rows.Scan(&m.UserID, &m.Username, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// RosterSize counts distinct users holding a team-scoped role on the team.
func (r *Repository) RosterSize(ctx context.Context, teamID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT user_id) FROM role_assignments WHERE scope = $1 AND scope_id = $2`,
		access.ScopeTeam, teamID).Scan(&n)
	return n, err
}

// GrantRole records a team-scoped role assignment and points the user's home
// team at this team when they have none yet.
func (r *Repository) GrantRole(ctx context.Context, userID string, a access.RoleAssignment) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO role_assignments (user_id, scope, role, scope_id, created_at)
			 VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
			 ON CONFLICT DO NOTHING`,
			userID, a.Scope, a.Role, a.ScopeID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE users SET team_id = $2, updated_at = NOW() WHERE id = $1 AND team_id IS NULL`,
			userID, a.ScopeID)
		return err
	})
}

// RevokeRoles removes every team-scoped role the user holds on the team and
// clears their home team when it pointed here.
func (r *Repository) RevokeRoles(ctx context.Context, userID, teamID string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM role_assignments WHERE user_id = $1 AND scope = $2 AND scope_id = $3`,
			userID, access.ScopeTeam, teamID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		_, err = tx.Exec(ctx,
			`UPDATE users SET team_id = NULL, updated_at = NOW() WHERE id = $1 AND team_id = $2`,
			userID, teamID)
		return err
	})
}

// TransferOwnership swaps the owner role between the two users and updates the
// team record in one transaction.
func (r *Repository) TransferOwnership(ctx context.Context, teamID, oldOwnerID, newOwnerID string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM role_assignments WHERE user_id = $1 AND scope = $2 AND scope_id = $3 AND role = $4`,
			oldOwnerID, access.ScopeTeam, teamID, access.RoleTeamOwner)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO role_assignments (user_id, scope, role, scope_id, created_at)
			 VALUES ($1, $2, $3, $4, NOW())
			 ON CONFLICT DO NOTHING`,
			oldOwnerID, access.ScopeTeam, access.RoleTeamPlayer, teamID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`DELETE FROM role_assignments WHERE user_id = $1 AND scope = $2 AND scope_id = $3`,
			newOwnerID, access.ScopeTeam, teamID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO role_assignments (user_id, scope, role, scope_id, created_at)
			 VALUES ($1, $2, $3, $4, NOW())`,
			newOwnerID, access.ScopeTeam, access.RoleTeamOwner, teamID)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE teams SET owner_id = $2, updated_at = NOW() WHERE id = $1`, teamID, newOwnerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Disband deletes the team, all its role assignments and clears home-team
// pointers in one transaction.
func (r *Repository) Disband(ctx context.Context, teamID string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM role_assignments WHERE scope = $1 AND scope_id = $2`,
			access.ScopeTeam, teamID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE users SET team_id = NULL, updated_at = NOW() WHERE team_id = $1`, teamID)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func scanTeam(row pgx.Row) (*Team, error) {
	var t Team
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Tag, &t.Game, &t.LogoURL, &t.Region,
		&t.OwnerID, &t.MaxRoster, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
