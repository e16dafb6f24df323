package access

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-kardan/internal/persistence"
)

// Repository reads roles and accounts. These tables change rarely and are
// read on login only, so they are not cached.
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// RolePermissions returns the permission codes granted to role, sorted.
func (r *Repository) RolePermissions(ctx context.Context, role string) ([]string, error) {
	var codes []string
	err := r.db.NewSelect().
		Model((*Permission)(nil)).
		ColumnExpr("p.code").
		Join("JOIN role_permissions AS rp ON rp.permission_id = p.id").
		Join("JOIN roles AS r ON r.id = rp.role_id").
		Where("r.name = ?", role).
		OrderExpr("p.code ASC").
		Scan(ctx, &codes)
	if err != nil {
		return nil, fmt.Errorf("load permissions of %s: %w", role, err)
	}
	return codes, nil
}

// Account returns the account registered under username.
func (r *Repository) Account(ctx context.Context, username string) (Account, error) {
	var account Account
	err := r.db.NewSelect().
		Model(&account).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if persistence.IsNoRows(err) {
			return Account{}, goerrors.New(
				fmt.Sprintf("account %q not found", username),
				goerrors.CategoryNotFound,
			).WithTextCode("NOT_FOUND").WithMetadata(map[string]any{"username": username})
		}
		return Account{}, fmt.Errorf("load account %s: %w", username, err)
	}
	return account, nil
}

// Roles lists every role by name.
func (r *Repository) Roles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if err := r.db.NewSelect().Model(&roles).OrderExpr("?TableAlias.name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return roles, nil
}
