// Package catalog declares the reference data types of a kardan shop floor
// and the codes seeded for each of them.
package catalog

import (
	"github.com/uptrace/bun"

	"github.com/goliatone/go-kardan/basedata"
	"github.com/goliatone/go-kardan/seed"
)

type ExecutionStatus struct {
	bun.BaseModel `bun:"table:execution_statuses,alias:es"`
	basedata.Base
}

type MachineStatus struct {
	bun.BaseModel `bun:"table:machine_statuses,alias:ms"`
	basedata.Base
}

type MachineType struct {
	bun.BaseModel `bun:"table:machine_types,alias:mt"`
	basedata.Base
}

type PartStatus struct {
	bun.BaseModel `bun:"table:part_statuses,alias:ps"`
	basedata.Base
}

type ProjectStatus struct {
	bun.BaseModel `bun:"table:project_statuses,alias:prs"`
	basedata.Base
}

type ShiftStatus struct {
	bun.BaseModel `bun:"table:shift_statuses,alias:ss"`
	basedata.Base
}

type StopReasonCategory struct {
	bun.BaseModel `bun:"table:stop_reason_categories,alias:src"`
	basedata.Base
}

// Registry returns the table of every type in the catalog, keyed by the
// Go type name.
func Registry() *basedata.Registry {
	return basedata.MustNewRegistry(
		basedata.Describe[ExecutionStatus]("ExecutionStatus"),
		basedata.Describe[MachineStatus]("MachineStatus"),
		basedata.Describe[MachineType]("MachineType"),
		basedata.Describe[PartStatus]("PartStatus"),
		basedata.Describe[ProjectStatus]("ProjectStatus"),
		basedata.Describe[ShiftStatus]("ShiftStatus"),
		basedata.Describe[StopReasonCategory]("StopReasonCategory"),
	)
}

// Enumerations returns the codes every installation starts with. Types
// without a fixed vocabulary, such as MachineType, are left to operators.
func Enumerations() []seed.Enumeration {
	return []seed.Enumeration{
		{
			Type: "ExecutionStatus",
			Values: []seed.Value{
				{Code: "PENDING", Display: "Pending"},
				{Code: "STARTED", Display: "Started"},
				{Code: "PAUSED", Display: "Paused"},
				{Code: "COMPLETED", Display: "Completed"},
				{Code: "CANCELLED", Display: "Cancelled"},
			},
		},
		{
			Type: "MachineStatus",
			Values: []seed.Value{
				{Code: "IDLE", Display: "Idle"},
				{Code: "RUNNING", Display: "Running"},
				{Code: "MAINTENANCE", Display: "Under maintenance"},
				{Code: "OUT_OF_SERVICE", Display: "Out of service"},
			},
		},
		{
			Type: "PartStatus",
			Values: []seed.Value{
				{Code: "NEW", Display: "New"},
				{Code: "IN_PROGRESS", Display: "In progress"},
				{Code: "DONE", Display: "Done"},
				{Code: "REJECTED", Display: "Rejected"},
			},
		},
		{
			Type: "ProjectStatus",
			Values: []seed.Value{
				{Code: "PLANNED", Display: "Planned"},
				{Code: "ACTIVE", Display: "Active"},
				{Code: "ON_HOLD", Display: "On hold"},
				{Code: "CLOSED", Display: "Closed"},
			},
		},
		{
			Type: "ShiftStatus",
			Values: []seed.Value{
				{Code: "OPEN", Display: "Open"},
				{Code: "CLOSED", Display: "Closed"},
			},
		},
		{
			Type: "StopReasonCategory",
			Values: []seed.Value{
				{Code: "BREAKDOWN", Display: "Breakdown"},
				{Code: "SETUP", Display: "Setup"},
				{Code: "MATERIAL", Display: "Waiting for material"},
				{Code: "QUALITY", Display: "Quality issue"},
				{Code: "PLANNED", Display: "Planned stop"},
			},
		},
	}
}
