package tournaments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

// RepositoryPort defines data access methods for tournaments.
type RepositoryPort interface {
	Create(ctx context.Context, t *Tournament) error
	Get(ctx context.Context, id string) (*Tournament, error)
	List(ctx context.Context, req ListTournamentsRequest) ([]Tournament, int, error)
	Update(ctx context.Context, id string, updates map[string]any) error
	SetStatus(ctx context.Context, id string, status Status) error

	CreateRegistration(ctx context.Context, reg *Registration) error
	GetRegistration(ctx context.Context, id string) (*Registration, error)
	FindRegistration(ctx context.Context, tournamentID, teamID string) (*Registration, error)
	ListRegistrations(ctx context.Context, tournamentID string) ([]Registration, error)
	CountActiveRegistrations(ctx context.Context, tournamentID string) (int, error)
	SetRegistrationStatus(ctx context.Context, id string, status RegistrationStatus, decidedBy, reason *string) error

	ListTeamMemberIDs(ctx context.Context, teamID string) ([]string, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tournamentColumns = `id, org_id, name, slug, game, format, description, prize_pool, max_teams, status, starts_at, ends_at, created_at, updated_at`

// Create inserts a tournament in draft status.
func (r *Repository) Create(ctx context.Context, t *Tournament) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tournaments (id, org_id, name, slug, game, format, description, prize_pool, max_teams, status, starts_at, ends_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`,
		t.ID, t.OrgID, t.Name, t.Slug, t.Game, t.Format, t.Description, t.PrizePool, t.MaxTeams, t.Status, t.StartsAt, t.EndsAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: tournament slug %q", httpx.ErrDuplicate, t.Slug)
		}
		return err
	}
	return nil
}

// Get fetches a tournament by id.
func (r *Repository) Get(ctx context.Context, id string) (*Tournament, error) {
	return scanTournament(r.pool.QueryRow(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id))
}

// List returns tournaments matching the request filters. Draft tournaments
// are excluded unless the filter names an org explicitly.
func (r *Repository) List(ctx context.Context, req ListTournamentsRequest) ([]Tournament, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}
	if req.Game != "" {
		conditions = append(conditions, fmt.Sprintf("game = $%d", argPos))
		args = append(args, req.Game)
		argPos++
	}
	if req.OrgID != "" {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argPos))
		args = append(args, req.OrgID)
		argPos++
	} else {
		conditions = append(conditions, fmt.Sprintf("status <> $%d", argPos))
		args = append(args, StatusDraft)
		argPos++
	}
	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tournaments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM tournaments %s ORDER BY starts_at NULLS LAST, name LIMIT $%d OFFSET $%d`,
		tournamentColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
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
	query := `UPDATE tournaments SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetStatus moves the tournament to the given status.
func (r *Repository) SetStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tournaments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const registrationColumns = `id, tournament_id, team_id, status, requested_by, decided_by, reason, created_at, updated_at`

// CreateRegistration inserts a pending registration. A unique index on
// (tournament_id, team_id) backs the duplicate check.
func (r *Repository) CreateRegistration(ctx context.Context, reg *Registration) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tournament_registrations (id, tournament_id, team_id, status, requested_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		reg.ID, reg.TournamentID, reg.TeamID, reg.Status, reg.RequestedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: team already registered", httpx.ErrDuplicate)
		}
		return err
	}
	return nil
}

// GetRegistration fetches a registration by id.
func (r *Repository) GetRegistration(ctx context.Context, id string) (*Registration, error) {
	return scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM tournament_registrations WHERE id = $1`, id))
}

// FindRegistration fetches a team's registration in a tournament.
func (r *Repository) FindRegistration(ctx context.Context, tournamentID, teamID string) (*Registration, error) {
	return scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM tournament_registrations WHERE tournament_id = $1 AND team_id = $2`,
		tournamentID, teamID))
}

// ListRegistrations returns all registrations for a tournament.
func (r *Repository) ListRegistrations(ctx context.Context, tournamentID string) ([]Registration, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+registrationColumns+` FROM tournament_registrations WHERE tournament_id = $1 ORDER BY created_at`,
		tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *reg)
	}
	return out, rows.Err()
}

// CountActiveRegistrations counts pending and approved entries. Capacity
// checks run against this under the registration lock.
func (r *Repository) CountActiveRegistrations(ctx context.Context, tournamentID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tournament_registrations WHERE tournament_id = $1 AND status IN ($2, $3)`,
		tournamentID, RegistrationPending, RegistrationApproved).Scan(&n)
	return n, err
}

// SetRegistrationStatus moves a registration to the given status.
func (r *Repository) SetRegistrationStatus(ctx context.Context, id string, status RegistrationStatus, decidedBy, reason *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tournament_registrations SET status = $2, decided_by = $3, reason = $4, updated_at = NOW() WHERE id = $1`,
		id, status, decidedBy, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListTeamMemberIDs returns the distinct user ids holding a team-scoped role
// on the team, for notification fan-out.
func (r *Repository) ListTeamMemberIDs(ctx context.Context, teamID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT user_id FROM role_assignments WHERE scope = $1 AND scope_id = $2`,
		access.ScopeTeam, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanTournament(row pgx.Row) (*Tournament, error) {
	var t Tournament
	err := row.Scan(&t.ID, &t.OrgID, &t.Name, &t.Slug, &t.Game, &t.Format, &t.Description,
		&t.PrizePool, &t.MaxTeams, &t.Status, &t.StartsAt, &t.EndsAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func scanRegistration(row pgx.Row) (*Registration, error) {
	var reg Registration
	err := row.Scan(&reg.ID, &reg.TournamentID, &reg.TeamID, &reg.Status, &reg.RequestedBy,
		&reg.DecidedBy, &reg.Reason, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}
