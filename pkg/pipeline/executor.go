package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// State is the lifecycle position of an Executor.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateLoadFailed
	StateRunning
	StateStoppedEarly
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateLoadFailed:
		return "load-failed"
	case StateRunning:
		return "running"
	case StateStoppedEarly:
		return "stopped-early"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrInvalidState is returned when Load or Run is called out of order.
var ErrInvalidState = errors.New("invalid executor state")

// StepError reports the step that failed to load or run.
type StepError struct {
	Index int // 1-based position in the config
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Report summarizes a finished run.
type Report struct {
	Executed     []string
	Skipped      []string
	StoppedEarly bool
	// StoppedAfter names the step whose stop flag ended the run.
	StoppedAfter string
}

type loadedStep struct {
	index   int
	name    string
	step    Step
	execute bool
	stop    bool
}

// Executor constructs the configured steps and runs them once, in order.
type Executor struct {
	cfg      *Config
	registry *Registry
	logger   *zap.Logger

	state State
	steps []loadedStep
}

// NewExecutor returns an executor for cfg whose step names resolve
// against reg.
func NewExecutor(cfg *Config, reg *Registry, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{cfg: cfg, registry: reg, logger: logger}
}

// State returns the current lifecycle state.
func (e *Executor) State() State { return e.state }

// Load resolves and constructs every step. If any step cannot be resolved
// or constructed, nothing is kept and the executor moves to
// StateLoadFailed.
func (e *Executor) Load() error {
	if e.state != StateUnloaded {
		return fmt.Errorf("%w: load called in state %s", ErrInvalidState, e.state)
	}
	if err := e.registry.Validate(e.cfg); err != nil {
		e.state = StateLoadFailed
		e.logger.Error("Pipeline references unknown steps", zap.Error(err))
		return err
	}

	steps := make([]loadedStep, 0, len(e.cfg.Steps))
	for i := range e.cfg.Steps {
		sc := &e.cfg.Steps[i]
		name := sc.Name()
		factory, _ := e.registry.Lookup(sc.Module, sc.Class)

		stepLogger := e.logger.Named(name)
		step, err := factory(NewParams(&sc.Params), stepLogger)
		if err != nil {
			e.state = StateLoadFailed
			e.logger.Error("Failed to load step", zap.Int("step", i+1), zap.String("name", name), zap.Error(err))
			return &StepError{Index: i + 1, Name: name, Err: err}
		}
		steps = append(steps, loadedStep{
			index:   i + 1,
			name:    name,
			step:    step,
			execute: sc.ShouldExecute(),
			stop:    sc.Stop,
		})
		e.logger.Debug("Loaded step", zap.Int("step", i+1), zap.String("name", name))
	}

	e.steps = steps
	e.state = StateLoaded
	e.logger.Info("Loaded pipeline steps", zap.Int("count", len(steps)))
	return nil
}

// Run executes the loaded steps in order. A step with execute=false is
// skipped; a step with stop=true ends the run after it is handled,
// whether or not it executed. The first step error aborts the run.
func (e *Executor) Run(ctx context.Context) (*Report, error) {
	if e.state != StateLoaded {
		return nil, fmt.Errorf("%w: run called in state %s", ErrInvalidState, e.state)
	}
	e.state = StateRunning

	report := &Report{}
	for _, s := range e.steps {
		if err := ctx.Err(); err != nil {
			e.state = StateFailed
			return report, &StepError{Index: s.index, Name: s.name, Err: err}
		}

		e.logger.Info("Step", zap.Int("step", s.index), zap.String("name", s.name), zap.Bool("execute", s.execute))
		if s.execute {
			if err := s.step.Process(ctx); err != nil {
				e.state = StateFailed
				e.logger.Error("Step failed", zap.Int("step", s.index), zap.String("name", s.name), zap.Error(err))
				return report, &StepError{Index: s.index, Name: s.name, Err: err}
			}
			report.Executed = append(report.Executed, s.name)
			e.logger.Info("Step completed successfully", zap.String("name", s.name))
		} else {
			report.Skipped = append(report.Skipped, s.name)
			e.logger.Info("Skipping step", zap.String("name", s.name))
		}

		if s.stop {
			report.StoppedEarly = true
			report.StoppedAfter = s.name
			e.state = StateStoppedEarly
			e.logger.Info("Stopping after step", zap.String("name", s.name))
			return report, nil
		}
	}

	e.state = StateCompleted
	e.logger.Info("All steps completed without interruption", zap.Int("executed", len(report.Executed)), zap.Int("skipped", len(report.Skipped)))
	return report, nil
}
