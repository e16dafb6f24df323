// Package seed fills reference data tables from fixed enumerations when the
// application becomes ready. Every pass is idempotent: codes already present
// are left alone and a failure on one item never stops the others.
package seed

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-kardan/basedata"
)

// Value is one declared code and its display text. The display text is
// used for both name and description of the inserted row.
type Value struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}

// Enumeration lists the codes that must exist for a registered type.
type Enumeration struct {
	Type   string  `json:"type"`
	Values []Value `json:"values"`
}

// Result counts what one enumeration or task did.
type Result struct {
	Inserted int    `json:"inserted"`
	Existing int    `json:"existing"`
	Failed   int    `json:"failed"`
	Error    string `json:"error,omitempty"`
}

func (r *Result) add(o Result) {
	r.Inserted += o.Inserted
	r.Existing += o.Existing
	r.Failed += o.Failed
}

// Task is an extra idempotent step run after the enumerations.
type Task interface {
	Name() string
	Run(ctx context.Context) (Result, error)
}

// Report summarizes one seeding pass.
type Report struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Inserted   int               `json:"inserted"`
	Existing   int               `json:"existing"`
	Failed     int               `json:"failed"`
	Types      map[string]Result `json:"types"`
	Tasks      map[string]Result `json:"tasks,omitempty"`
}

// Run seeds every enumeration through factory and then runs tasks. It
// never returns an error: failures are logged and counted in the report.
func Run(ctx context.Context, factory *basedata.Factory, enums []Enumeration, tasks []Task, log logrus.FieldLogger) Report {
	report := Report{
		RunID:     newRunID(),
		StartedAt: time.Now(),
		Types:     make(map[string]Result, len(enums)),
	}
	log = log.WithField("run_id", report.RunID)
	log.Info("seeding started")

	for _, enum := range enums {
		res := seedEnumeration(ctx, factory, enum, log.WithField("type", enum.Type))
		prev := report.Types[enum.Type]
		prev.add(res)
		report.Types[enum.Type] = prev

		report.Inserted += res.Inserted
		report.Existing += res.Existing
		report.Failed += res.Failed
	}

	for _, task := range tasks {
		if report.Tasks == nil {
			report.Tasks = make(map[string]Result, len(tasks))
		}
		report.Tasks[task.Name()] = runTask(ctx, task, log.WithField("task", task.Name()))
	}

	report.FinishedAt = time.Now()
	log.WithFields(logrus.Fields{
		"inserted": report.Inserted,
		"existing": report.Existing,
		"failed":   report.Failed,
		"elapsed":  report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("seeding finished")

	return report
}

func seedEnumeration(ctx context.Context, factory *basedata.Factory, enum Enumeration, log logrus.FieldLogger) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("enumeration panicked")
			// values not yet counted are failed
			res.Failed = len(enum.Values) - res.Inserted - res.Existing
			res.Error = "panic"
		}
	}()

	store, err := factory.Create(enum.Type)
	if err != nil {
		log.WithError(err).Error("enumeration skipped")
		res.Failed = len(enum.Values)
		res.Error = err.Error()
		return res
	}

	for _, v := range enum.Values {
		if ctx.Err() != nil {
			res.Failed++
			continue
		}

		_, found, err := store.FindByCode(ctx, v.Code)
		if err != nil {
			log.WithError(err).WithField("code", v.Code).Error("seed lookup failed")
			res.Failed++
			continue
		}
		if found {
			res.Existing++
			continue
		}

		_, err = store.Create(ctx, basedata.Payload{Code: v.Code, Name: v.Display, Description: v.Display})
		switch {
		case err == nil:
			log.WithField("code", v.Code).Info("inserted")
			res.Inserted++
		case basedata.IsDuplicateCode(err):
			// another writer got there between lookup and insert
			res.Existing++
		default:
			log.WithError(err).WithField("code", v.Code).Error("seed insert failed")
			res.Failed++
		}
	}

	return res
}

func runTask(ctx context.Context, task Task, log logrus.FieldLogger) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("seed task panicked")
			res.Failed++
			res.Error = "panic"
		}
	}()

	res, err := task.Run(ctx)
	if err != nil {
		log.WithError(err).Error("seed task failed")
		res.Error = err.Error()
		if res.Failed == 0 {
			res.Failed = 1
		}
		return res
	}

	log.WithFields(logrus.Fields{
		"inserted": res.Inserted,
		"existing": res.Existing,
	}).Info("seed task finished")
	return res
}
