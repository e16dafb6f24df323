package access

import (
	"context"
	"fmt"
	"slices"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-kardan/internal/persistence"
	"github.com/goliatone/go-kardan/seed"
)

// Admin identifies the account created on first start.
type Admin struct {
	Username      string
	PersonnelCode string
}

// Bootstrapper is the seed task that ensures roles, permissions, the
// admin grant and the admin account. Each step only adds what is missing.
type Bootstrapper struct {
	db    bun.IDB
	admin Admin
}

var _ seed.Task = (*Bootstrapper)(nil)

func NewBootstrapper(db bun.IDB, admin Admin) *Bootstrapper {
	return &Bootstrapper{db: db, admin: admin}
}

func (b *Bootstrapper) Name() string { return "access" }

// Run applies every step in one transaction.
func (b *Bootstrapper) Run(ctx context.Context) (seed.Result, error) {
	var res seed.Result

	err := persistence.RunInTx(ctx, b.db, func(ctx context.Context, tx bun.Tx) error {
		res = seed.Result{}
		steps := []func(context.Context, bun.IDB) (seed.Result, error){
			b.ensureRoles,
			b.ensurePermissions,
			b.grantAdmin,
			b.ensureAdminAccount,
		}
		for _, step := range steps {
			r, err := step(ctx, tx)
			if err != nil {
				return err
			}
			res.Inserted += r.Inserted
			res.Existing += r.Existing
		}
		return nil
	})
	if err != nil {
		return seed.Result{}, goerrors.Wrap(err, goerrors.CategoryInternal, "access bootstrap failed").
			WithTextCode("ACCESS_BOOTSTRAP_FAILED")
	}
	return res, nil
}

func (b *Bootstrapper) ensureRoles(ctx context.Context, db bun.IDB) (seed.Result, error) {
	var res seed.Result
	for _, t := range UserTypes() {
		name := RoleName(t)
		exists, err := db.NewSelect().Model((*Role)(nil)).Where("?TableAlias.name = ?", name).Exists(ctx)
		if err != nil {
			return res, fmt.Errorf("lookup role %s: %w", name, err)
		}
		if exists {
			res.Existing++
			continue
		}
		role := &Role{Name: name, Description: name}
		if _, err := db.NewInsert().Model(role).Exec(ctx); err != nil {
			return res, fmt.Errorf("insert role %s: %w", name, err)
		}
		res.Inserted++
	}
	return res, nil
}

func (b *Bootstrapper) ensurePermissions(ctx context.Context, db bun.IDB) (seed.Result, error) {
	var res seed.Result
	for _, code := range Privileges() {
		exists, err := db.NewSelect().Model((*Permission)(nil)).Where("?TableAlias.code = ?", code).Exists(ctx)
		if err != nil {
			return res, fmt.Errorf("lookup permission %s: %w", code, err)
		}
		if exists {
			res.Existing++
			continue
		}
		perm := &Permission{Code: code, Name: code, Description: code}
		if _, err := db.NewInsert().Model(perm).Exec(ctx); err != nil {
			return res, fmt.Errorf("insert permission %s: %w", code, err)
		}
		res.Inserted++
	}
	return res, nil
}

// grantAdmin links the admin role to every permission in the table,
// including ones added outside the bootstrap.
func (b *Bootstrapper) grantAdmin(ctx context.Context, db bun.IDB) (seed.Result, error) {
	var res seed.Result

	role := new(Role)
	if err := db.NewSelect().Model(role).Where("?TableAlias.name = ?", AdminRole).Scan(ctx); err != nil {
		return res, fmt.Errorf("load %s: %w", AdminRole, err)
	}

	var all []int64
	if err := db.NewSelect().Model((*Permission)(nil)).Column("id").Scan(ctx, &all); err != nil {
		return res, fmt.Errorf("load permissions: %w", err)
	}

	var granted []int64
	err := db.NewSelect().
		Model((*RolePermission)(nil)).
		Column("permission_id").
		Where("?TableAlias.role_id = ?", role.ID).
		Scan(ctx, &granted)
	if err != nil {
		return res, fmt.Errorf("load grants: %w", err)
	}

	var missing []RolePermission
	for _, id := range all {
		if slices.Contains(granted, id) {
			res.Existing++
			continue
		}
		missing = append(missing, RolePermission{RoleID: role.ID, PermissionID: id})
	}

	if len(missing) > 0 {
		if _, err := db.NewInsert().Model(&missing).Exec(ctx); err != nil {
			return res, fmt.Errorf("grant %s: %w", AdminRole, err)
		}
		res.Inserted += len(missing)
	}
	return res, nil
}

func (b *Bootstrapper) ensureAdminAccount(ctx context.Context, db bun.IDB) (seed.Result, error) {
	var res seed.Result

	exists, err := db.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.username = ?", b.admin.Username).
		Exists(ctx)
	if err != nil {
		return res, fmt.Errorf("lookup account %s: %w", b.admin.Username, err)
	}
	if exists {
		res.Existing++
		return res, nil
	}

	account := &Account{
		Username:      b.admin.Username,
		PersonnelCode: b.admin.PersonnelCode,
		Types:         joinTypes(UserTypes()),
	}
	if _, err := db.NewInsert().Model(account).Exec(ctx); err != nil {
		return res, fmt.Errorf("insert account %s: %w", b.admin.Username, err)
	}
	res.Inserted++
	return res, nil
}
