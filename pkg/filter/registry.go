package filter

import (
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pointstream/lasio/pkg/errors"
	"github.com/pointstream/lasio/pkg/las"
	"github.com/pointstream/lasio/pkg/logger"
)

// Factory builds a filter from a textual argument, e.g. the value of a
// CLI flag. The exclude flag applies the inclusion/exclusion toggle.
type Factory func(arg string, exclude bool) (Filter, error)

// Registry maps filter names to factories so callers (the CLI, config
// files) can construct filters by name.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
	logger    *zap.Logger
}

// Global registry instance holding the built-in filters.
var globalRegistry = NewRegistry()

// NewRegistry creates an empty filter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.Get().With(zap.String("component", "filter_registry")),
	}
}

// Register registers a filter factory under name.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "filter %s already registered", name)
	}
	r.factories[name] = factory
	r.logger.Debug("filter registered", zap.String("name", name))
	return nil
}

// New constructs a filter by registered name.
func (r *Registry) New(name, arg string, exclude bool) (Filter, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "filter %s not found", name)
	}
	return factory(arg, exclude)
}

// Names returns the registered filter names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Register registers a factory in the global registry.
func Register(name string, factory Factory) error {
	return globalRegistry.Register(name, factory)
}

// New constructs a filter by name from the global registry.
func New(name, arg string, exclude bool) (Filter, error) {
	return globalRegistry.New(name, arg, exclude)
}

// Names lists the globally registered filter names.
func Names() []string {
	return globalRegistry.Names()
}

func init() {
	_ = Register("classification", func(arg string, exclude bool) (Filter, error) {
		classes, err := parseClassList(arg)
		if err != nil {
			return nil, err
		}
		return NewClassificationFilter(exclude, classes...), nil
	})
	_ = Register("last-return", func(arg string, exclude bool) (Filter, error) {
		if arg != "" {
			return nil, errors.New(errors.ErrorTypeConfig, "last-return filter takes no argument")
		}
		return NewLastReturnFilter(exclude), nil
	})
}

// parseClassList parses a comma-separated list of classification codes,
// e.g. "2,3,4".
func parseClassList(arg string) ([]las.Classification, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "classification filter needs at least one code")
	}
	parts := strings.Split(arg, ",")
	classes := make([]las.Classification, 0, len(parts))
	for _, part := range parts {
		code, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil || code > 31 {
			return nil, errors.Newf(errors.ErrorTypeConfig, "invalid classification code %q", part)
		}
		classes = append(classes, las.Classification(code))
	}
	return classes, nil
}
