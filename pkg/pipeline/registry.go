package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Step is a single pipeline stage. Process runs the stage to completion;
// its inputs and outputs are files named by its parameters.
type Step interface {
	Process(ctx context.Context) error
}

// StepFunc adapts a function to the Step interface.
type StepFunc func(ctx context.Context) error

// Process calls f(ctx).
func (f StepFunc) Process(ctx context.Context) error { return f(ctx) }

// Factory constructs a step from its parameters.
type Factory func(params Params, logger *zap.Logger) (Step, error)

// ErrUnknownStep is returned when a configured step is not registered.
var ErrUnknownStep = errors.New("unknown step")

// Registry is the closed set of step implementations a pipeline may name.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under module.class. Registering the same name
// twice is a programming error and panics.
func (r *Registry) Register(module, class string, f Factory) {
	name := StepName(module, class)
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("pipeline: step %q already registered", name))
	}
	r.factories[name] = f
}

// Lookup returns the factory registered under module.class.
func (r *Registry) Lookup(module, class string) (Factory, bool) {
	f, ok := r.factories[StepName(module, class)]
	return f, ok
}

// Names lists the registered step names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every step of cfg is registered, without
// constructing anything.
func (r *Registry) Validate(cfg *Config) error {
	var errs []error
	for i, s := range cfg.Steps {
		if _, ok := r.Lookup(s.Module, s.Class); !ok {
			errs = append(errs, fmt.Errorf("step %d: %w: %s", i+1, ErrUnknownStep, s.Name()))
		}
	}
	return errors.Join(errs...)
}
