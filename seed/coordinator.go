package seed

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-kardan/basedata"
)

// State of a Coordinator. It only ever moves forward.
type State int32

const (
	NotStarted State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Coordinator runs seeding once per process, on the first Ready call.
type Coordinator struct {
	factory *basedata.Factory
	enums   []Enumeration
	tasks   []Task
	log     logrus.FieldLogger

	state  atomic.Int32
	once   sync.Once
	mu     sync.RWMutex
	report Report
}

type Option func(*Coordinator)

// WithTasks appends tasks to run after the enumerations.
func WithTasks(tasks ...Task) Option {
	return func(c *Coordinator) {
		c.tasks = append(c.tasks, tasks...)
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

func NewCoordinator(factory *basedata.Factory, enums []Enumeration, opts ...Option) *Coordinator {
	c := &Coordinator{
		factory: factory,
		enums:   enums,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ready is the application ready signal. The first call seeds and blocks
// until done; any later or concurrent call waits for that pass and
// returns its report.
func (c *Coordinator) Ready(ctx context.Context) Report {
	c.once.Do(func() {
		c.state.Store(int32(Running))
		defer c.state.Store(int32(Completed))

		report := Run(ctx, c.factory, c.enums, c.tasks, c.log)

		c.mu.Lock()
		c.report = report
		c.mu.Unlock()
	})
	return c.Report()
}

func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Report returns the completed pass, or a zero report before that.
func (c *Coordinator) Report() Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.report
}

func newRunID() string {
	return uuid.NewString()
}
