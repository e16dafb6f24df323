package basedata

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-kardan/internal/persistence"
)

// sqlRepository is the uncached store. Mutations run their read and
// write inside one transaction.
type sqlRepository[T any, PT Model[T]] struct {
	db       bun.IDB
	typeName string
}

func (r *sqlRepository[T, PT]) Create(ctx context.Context, payload Payload) (T, error) {
	var zero T
	payload = payload.normalized()
	if err := payload.validateCreate(r.typeName); err != nil {
		return zero, err
	}

	var row T
	*PT(&row).entity() = Base{
		Code:        payload.Code,
		Name:        payload.Name,
		Description: payload.Description,
	}

	err := persistence.RunInTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(PT(&row)).Exec(ctx)
		return err
	})
	if err != nil {
		if persistence.Classify(err) == persistence.ViolationUnique {
			return zero, errDuplicateCode(r.typeName, payload.Code, err)
		}
		return zero, errStorage(r.typeName, "create", err)
	}
	return row, nil
}

func (r *sqlRepository[T, PT]) Update(ctx context.Context, id int64, payload Payload) (T, error) {
	var zero T
	if err := payload.validateUpdate(r.typeName); err != nil {
		return zero, err
	}

	var row T
	err := persistence.RunInTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if err := r.selectByID(ctx, tx, id, PT(&row)); err != nil {
			return err
		}
		base := PT(&row).entity()
		base.Name = payload.Name
		base.Description = payload.Description

		_, err := tx.NewUpdate().
			Model(PT(&row)).
			Column("name", "description").
			WherePK().
			Exec(ctx)
		return err
	})
	if err != nil {
		if persistence.IsNoRows(err) {
			return zero, errNotFound(r.typeName, "id", id)
		}
		return zero, errStorage(r.typeName, "update", err)
	}
	return row, nil
}

func (r *sqlRepository[T, PT]) Delete(ctx context.Context, id int64) error {
	err := persistence.RunInTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		var row T
		if err := r.selectByID(ctx, tx, id, PT(&row)); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model(PT(&row)).WherePK().Exec(ctx)
		return err
	})
	switch {
	case err == nil:
		return nil
	case persistence.IsNoRows(err):
		return errNotFound(r.typeName, "id", id)
	case persistence.Classify(err) == persistence.ViolationForeignKey:
		return errDependencyExists(r.typeName, id, err)
	default:
		return errStorage(r.typeName, "delete", err)
	}
}

func (r *sqlRepository[T, PT]) GetByID(ctx context.Context, id int64) (T, error) {
	var row T
	if err := r.selectByID(ctx, r.db, id, PT(&row)); err != nil {
		var zero T
		if persistence.IsNoRows(err) {
			return zero, errNotFound(r.typeName, "id", id)
		}
		return zero, errStorage(r.typeName, "get", err)
	}
	return row, nil
}

func (r *sqlRepository[T, PT]) FindByCode(ctx context.Context, code string) (T, bool, error) {
	var row, zero T
	code = strings.TrimSpace(code)
	if code == "" {
		return zero, false, nil
	}

	err := r.db.NewSelect().
		Model(PT(&row)).
		Where("?TableAlias.code = ?", code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if persistence.IsNoRows(err) {
			return zero, false, nil
		}
		return zero, false, errStorage(r.typeName, "get by code", err)
	}
	return row, true, nil
}

func (r *sqlRepository[T, PT]) GetByCode(ctx context.Context, code string) (T, error) {
	row, ok, err := r.FindByCode(ctx, code)
	if err != nil {
		return row, err
	}
	if !ok {
		return row, errNotFound(r.typeName, "code", code)
	}
	return row, nil
}

func (r *sqlRepository[T, PT]) GetAll(ctx context.Context) ([]T, error) {
	rows := make([]T, 0)
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errStorage(r.typeName, "list", err)
	}
	return rows, nil
}

func (r *sqlRepository[T, PT]) selectByID(ctx context.Context, db bun.IDB, id int64, dest PT) error {
	return db.NewSelect().
		Model(dest).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
}
