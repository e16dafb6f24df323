// Package access bootstraps roles, permissions and the administrator
// account a fresh installation needs before anyone can log in.
package access

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type UserType string

const (
	UserTypeAdmin    UserType = "ADMIN"
	UserTypeManager  UserType = "MANAGER"
	UserTypeOperator UserType = "OPERATOR"
)

// UserTypes lists every user type in declaration order.
func UserTypes() []UserType {
	return []UserType{UserTypeAdmin, UserTypeManager, UserTypeOperator}
}

// RoleName is the role every user of type t holds.
func RoleName(t UserType) string {
	return "ROLE_" + string(t)
}

// AdminRole holds every privilege.
var AdminRole = RoleName(UserTypeAdmin)

// Privileges known to the application.
const (
	PrivilegeAppManage          = "APP_MANAGE"
	PrivilegeMachineManage      = "MACHINE_MANAGE"
	PrivilegeMachineView        = "MACHINE_VIEW"
	PrivilegeOperationManage    = "OPERATION_MANAGE"
	PrivilegeOperationExecution = "OPERATION_EXECUTION"
	PrivilegeShiftManage        = "SHIFT_MANAGE"
	PrivilegePartManage         = "PART_MANAGE"
	PrivilegePartView           = "PART_VIEW"
	PrivilegeProjectManage      = "PROJECT_MANAGE"
	PrivilegeProjectView        = "PROJECT_VIEW"
)

func Privileges() []string {
	return []string{
		PrivilegeAppManage,
		PrivilegeMachineManage,
		PrivilegeMachineView,
		PrivilegeOperationManage,
		PrivilegeOperationExecution,
		PrivilegeShiftManage,
		PrivilegePartManage,
		PrivilegePartView,
		PrivilegeProjectManage,
		PrivilegeProjectView,
	}
}

type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description,notnull" json:"description"`
}

type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Code        string `bun:"code,notnull" json:"code"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description,notnull" json:"description"`
}

type RolePermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rp"`

	RoleID       int64 `bun:"role_id,pk"`
	PermissionID int64 `bun:"permission_id,pk"`
}

// Account links a login to a person on the shop floor. Types holds the
// user types as a comma separated list.
type Account struct {
	bun.BaseModel `bun:"table:user_accounts,alias:ua"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Username      string    `bun:"username,notnull" json:"username"`
	PersonnelCode string    `bun:"personnel_code,notnull" json:"personnel_code"`
	Types         string    `bun:"types,notnull" json:"types"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// UserTypes parses Types.
func (a Account) UserTypes() []UserType {
	var out []UserType
	for _, t := range strings.Split(a.Types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, UserType(t))
		}
	}
	return out
}

func joinTypes(types []UserType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}
