package orgs

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

// RepositoryPort defines data access methods for organizations.
type RepositoryPort interface {
	Create(ctx context.Context, org *Organization) error
	Get(ctx context.Context, id string) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	List(ctx context.Context, req ListOrgsRequest) ([]Organization, int, error)
	Update(ctx context.Context, id string, updates map[string]any) error
	ListMembers(ctx context.Context, orgID string) ([]Member, error)
	GrantRole(ctx context.Context, userID string, a access.RoleAssignment) error
	RevokeRoles(ctx context.Context, userID, orgID string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orgColumns = `id, name, slug, description, logo_url, region, owner_id, is_verified, created_at, updated_at`

// Create inserts the organization, grants the owner role and records the
// owner's home org in one transaction.
func (r *Repository) Create(ctx context.Context, org *Organization) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO organizations (id, name, slug, description, logo_url, region, owner_id, is_verified, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW())`,
			org.ID, org.Name, org.Slug, org.Description, org.LogoURL, org.Region, org.OwnerID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: organization slug %q", httpx.ErrDuplicate, org.Slug)
			}
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO role_assignments (user_id, scope, role, scope_id, created_at)
			 VALUES ($1, $2, $3, $4, NOW())
			 ON CONFLICT DO NOTHING`,
			org.OwnerID, access.ScopeOrg, access.RoleOrgOwner, org.ID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE users SET org_id = $2, updated_at = NOW() WHERE id = $1`, org.OwnerID, org.ID)
		return err
	})
}

// Get fetches an organization by id.
func (r *Repository) Get(ctx context.Context, id string) (*Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
}

// GetBySlug fetches an organization by its URL slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE slug = $1`, slug))
}

// List returns organizations matching the request filters.
func (r *Repository) List(ctx context.Context, req ListOrgsRequest) ([]Organization, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}
	if req.Region != "" {
		conditions = append(conditions, fmt.Sprintf("region = $%d", argPos))
		args = append(args, req.Region)
		argPos++
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM organizations `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM organizations %s ORDER BY name LIMIT $%d OFFSET $%d`,
		orgColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, *o)
	}
	return orgs, total, rows.Err()
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
	query := `UPDATE organizations SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListMembers returns users holding an org-scoped role on the organization.
func (r *Repository) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ra.user_id, u.username, ra.role, ra.created_at
		 FROM role_assignments ra
		 JOIN users u ON u.id = ra.user_id
		 WHERE ra.scope = $1 AND ra.scope_id = $2
		 ORDER BY ra.created_at`,
		access.ScopeOrg, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Username, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GrantRole records an org-scoped role assignment.
func (r *Repository) GrantRole(ctx context.Context, userID string, a access.RoleAssignment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO role_assignments (user_id, scope, role, scope_id, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
		 ON CONFLICT DO NOTHING`,
		userID, a.Scope, a.Role, a.ScopeID)
	return err
}

// RevokeRoles removes every org-scoped role the user holds on the organization.
func (r *Repository) RevokeRoles(ctx context.Context, userID, orgID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM role_assignments WHERE user_id = $1 AND scope = $2 AND scope_id = $3`,
		userID, access.ScopeOrg, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanOrg(row pgx.Row) (*Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Description, &o.LogoURL, &o.Region,
		&o.OwnerID, &o.IsVerified, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
