// Package machine manages the machines on the shop floor. Every machine
// points at a MachineType and a MachineStatus reference row, which is what
// keeps those rows from being deleted while in use.
package machine

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-kardan/basedata"
	"github.com/goliatone/go-kardan/catalog"
	"github.com/goliatone/go-kardan/internal/persistence"
)

type Machine struct {
	bun.BaseModel `bun:"table:machines,alias:m"`

	ID              int64  `bun:"id,pk,autoincrement" json:"id"`
	Code            string `bun:"code,notnull" json:"code"`
	Name            string `bun:"name,notnull" json:"name"`
	MachineTypeID   int64  `bun:"machine_type_id,notnull" json:"machine_type_id"`
	MachineStatusID int64  `bun:"machine_status_id,notnull" json:"machine_status_id"`
}

// Input creates a machine. Type and status are given by code.
type Input struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	TypeCode   string `json:"type_code"`
	StatusCode string `json:"status_code"`
}

func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Code, validation.Required, validation.Length(1, 64)),
		validation.Field(&in.Name, validation.Length(0, 255)),
		validation.Field(&in.TypeCode, validation.Required),
		validation.Field(&in.StatusCode, validation.Required),
	)
}

type Service struct {
	db       bun.IDB
	types    basedata.Repository[catalog.MachineType]
	statuses basedata.Repository[catalog.MachineStatus]
}

// NewService needs a factory whose registry holds the catalog machine
// types and statuses.
func NewService(db bun.IDB, factory *basedata.Factory) (*Service, error) {
	types, err := basedata.For[catalog.MachineType](factory)
	if err != nil {
		return nil, err
	}
	statuses, err := basedata.For[catalog.MachineStatus](factory)
	if err != nil {
		return nil, err
	}
	return &Service{db: db, types: types, statuses: statuses}, nil
}

// Create resolves the type and status codes through the cached reference
// stores and inserts the machine.
func (s *Service) Create(ctx context.Context, in Input) (Machine, error) {
	in.Code = strings.TrimSpace(in.Code)
	if err := in.Validate(); err != nil {
		return Machine{}, goerrors.FromOzzoValidation(err, "invalid machine").
			WithTextCode(basedata.TextCodeValidation)
	}

	mt, err := s.types.GetByCode(ctx, in.TypeCode)
	if err != nil {
		return Machine{}, err
	}
	ms, err := s.statuses.GetByCode(ctx, in.StatusCode)
	if err != nil {
		return Machine{}, err
	}

	m := Machine{
		Code:            in.Code,
		Name:            in.Name,
		MachineTypeID:   mt.ID,
		MachineStatusID: ms.ID,
	}

	err = persistence.RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&m).Exec(ctx)
		return err
	})
	switch persistence.Classify(err) {
	case persistence.ViolationNone:
		if err != nil {
			return Machine{}, fmt.Errorf("insert machine %s: %w", in.Code, err)
		}
		return m, nil
	case persistence.ViolationUnique:
		return Machine{}, goerrors.New(
			fmt.Sprintf("machine with code %q already exists", in.Code),
			goerrors.CategoryConflict,
		).WithTextCode(basedata.TextCodeDuplicateCode)
	case persistence.ViolationForeignKey:
		// the reference row went away after it was resolved
		return Machine{}, goerrors.New("machine references a deleted row", goerrors.CategoryConflict).
			WithTextCode(basedata.TextCodeNotFound)
	default:
		return Machine{}, fmt.Errorf("insert machine %s: %w", in.Code, err)
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Machine, error) {
	var m Machine
	err := s.db.NewSelect().Model(&m).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if persistence.IsNoRows(err) {
			return Machine{}, notFound(id)
		}
		return Machine{}, fmt.Errorf("load machine %d: %w", id, err)
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*Machine)(nil)).Where("?TableAlias.id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete machine %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

func notFound(id int64) error {
	return goerrors.New(fmt.Sprintf("machine %d not found", id), goerrors.CategoryNotFound).
		WithTextCode(basedata.TextCodeNotFound).
		WithMetadata(map[string]any{"id": id})
}
