package basedata

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by the errors this package returns.
const (
	TextCodeNotFound         = "NOT_FOUND"
	TextCodeDuplicateCode    = "DUPLICATE_CODE"
	TextCodeDependencyExists = "DEPENDENCY_EXISTS"
	TextCodeInvalidEntity    = "INVALID_ENTITY"
	TextCodeValidation       = "VALIDATION_FAILED"
	TextCodeStorage          = "STORAGE_FAILURE"
)

func errNotFound(typeName, field string, value any) error {
	return goerrors.New(
		fmt.Sprintf("%s with %s %v not found", typeName, field, value),
		goerrors.CategoryNotFound,
	).WithTextCode(TextCodeNotFound).
		WithCode(404).
		WithMetadata(map[string]any{"type": typeName, field: value})
}

func errDuplicateCode(typeName, code string, cause error) error {
	err := goerrors.New(
		fmt.Sprintf("%s with code %q already exists", typeName, code),
		goerrors.CategoryConflict,
	).WithTextCode(TextCodeDuplicateCode).
		WithCode(409).
		WithMetadata(map[string]any{"type": typeName, "code": code})
	err.Source = cause
	return err
}

func errDependencyExists(typeName string, id int64, cause error) error {
	err := goerrors.New(
		fmt.Sprintf("%s %d has dependencies and cannot be deleted", typeName, id),
		goerrors.CategoryConflict,
	).WithTextCode(TextCodeDependencyExists).
		WithCode(409).
		WithMetadata(map[string]any{"type": typeName, "id": id})
	err.Source = cause
	return err
}

func errInvalidEntity(name string) error {
	return goerrors.New(
		fmt.Sprintf("invalid entity type %q", name),
		goerrors.CategoryBadInput,
	).WithTextCode(TextCodeInvalidEntity).
		WithCode(400).
		WithMetadata(map[string]any{"type": name})
}

func errStorage(typeName, op string, cause error) error {
	return goerrors.Wrap(cause, goerrors.CategoryInternal, fmt.Sprintf("%s %s failed", typeName, op)).
		WithTextCode(TextCodeStorage).
		WithCode(500).
		WithMetadata(map[string]any{"type": typeName, "op": op})
}

func hasTextCode(err error, code string) bool {
	var e *goerrors.Error
	return goerrors.As(err, &e) && e.TextCode == code
}

// IsNotFound reports a missing row, looked up by id or code.
func IsNotFound(err error) bool {
	return hasTextCode(err, TextCodeNotFound)
}

// IsDuplicateCode reports a create rejected by the unique code constraint.
func IsDuplicateCode(err error) bool {
	return hasTextCode(err, TextCodeDuplicateCode)
}

// IsDependencyExists reports a delete blocked by referencing rows.
func IsDependencyExists(err error) bool {
	return hasTextCode(err, TextCodeDependencyExists)
}

// IsInvalidEntity reports a type name the registry does not know.
func IsInvalidEntity(err error) bool {
	return hasTextCode(err, TextCodeInvalidEntity)
}

// IsValidation reports a rejected payload.
func IsValidation(err error) bool {
	return hasTextCode(err, TextCodeValidation)
}
