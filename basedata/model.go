package basedata

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

const (
	maxCodeLength = 64
	maxTextLength = 255
)

// Base holds the columns every reference data type shares. Concrete types
// embed it next to a bun.BaseModel that names their table:
//
//	type MachineType struct {
//		bun.BaseModel `bun:"table:machine_types,alias:mt"`
//		basedata.Base
//	}
type Base struct {
	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Code        string `bun:"code,notnull,unique" json:"code"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description,notnull" json:"description"`
}

// entity is promoted to every struct embedding Base, which is what
// Model checks for.
func (b *Base) entity() *Base { return b }

// Model is satisfied by *T when T embeds Base. The method is unexported, so
// no other type can join the family.
type Model[T any] interface {
	*T
	entity() *Base
}

func baseOf[T any, PT Model[T]](row T) Base {
	return *PT(&row).entity()
}

// Payload is the input for Create and Update. Ids are always assigned by
// the database, so there is no field for one.
type Payload struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (p Payload) normalized() Payload {
	p.Code = strings.TrimSpace(p.Code)
	return p
}

func (p Payload) validateCreate(typeName string) error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Code, validation.Required, validation.Length(1, maxCodeLength)),
		validation.Field(&p.Name, validation.Length(0, maxTextLength)),
		validation.Field(&p.Description, validation.Length(0, maxTextLength)),
	)
	return validationError(typeName, err)
}

// validateUpdate ignores Code, it is never written on update.
func (p Payload) validateUpdate(typeName string) error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Length(0, maxTextLength)),
		validation.Field(&p.Description, validation.Length(0, maxTextLength)),
	)
	return validationError(typeName, err)
}

func validationError(typeName string, err error) error {
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, "invalid "+typeName+" payload").
		WithTextCode(TextCodeValidation).
		WithCode(400).
		WithMetadata(map[string]any{"type": typeName})
}
