// Package lens narrows what a block shows. A lens is a filter
// expression over an item's fields (`!done && streak > 3`); compiled
// programs are cached and reused across goroutines. The package also
// ranks command palette entries with fuzzy matching.
package lens

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"prismdeck/internal/logging"
)

// Engine compiles and evaluates lens filters. Item fields are exposed
// to the expression as top-level variables. Safe for concurrent use.
type Engine struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
	log   *logging.Logger
}

// NewEngine creates an engine with an empty program cache.
func NewEngine() *Engine {
	return &Engine{
		cache: make(map[string]*vm.Program),
		log:   logging.Get(logging.CategoryLens),
	}
}

// Match reports whether an item's fields pass the filter. An empty
// filter passes everything. A non-boolean result is no match, not an
// error; evaluation failures are errors.
func (e *Engine) Match(filter string, fields map[string]any) (bool, error) {
	if filter == "" {
		return true, nil
	}

	prg, err := e.getOrCompile(filter, fields)
	if err != nil {
		return false, err
	}

	env := fields
	if env == nil {
		env = map[string]any{}
	}

	out, err := vm.Run(prg, env)
	if err != nil {
		return false, fmt.Errorf("lens %q: %w", filter, err)
	}

	pass, ok := out.(bool)
	return ok && pass, nil
}

// Apply filters items, keeping matches in their given order. A compile
// error aborts; items whose evaluation fails are dropped and logged.
func (e *Engine) Apply(filter string, items []map[string]any) ([]map[string]any, error) {
	if filter == "" {
		return items, nil
	}

	kept := make([]map[string]any, 0, len(items))
	for _, item := range items {
		pass, err := e.Match(filter, item)
		if err != nil {
			if isCompileError(err) {
				return nil, err
			}
			e.log.Debug("lens evaluation dropped item: %v", err)
			continue
		}
		if pass {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

// Check compiles the filter without evaluating it, catching syntax
// errors early. Undefined variables are allowed, so only malformed
// expressions fail.
func (e *Engine) Check(filter string) error {
	if filter == "" {
		return nil
	}
	_, err := e.getOrCompile(filter, nil)
	return err
}

// compileError marks failures from getOrCompile so Apply can tell them
// apart from per-item evaluation failures.
type compileError struct{ err error }

func (c compileError) Error() string { return c.err.Error() }
func (c compileError) Unwrap() error { return c.err }

func isCompileError(err error) bool {
	_, ok := err.(compileError)
	return ok
}

// getOrCompile returns a cached program or compiles and caches a new
// one, keyed on the filter text.
func (e *Engine) getOrCompile(filter string, fields map[string]any) (*vm.Program, error) {
	e.mu.RLock()
	if prg, ok := e.cache[filter]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := e.cache[filter]; ok {
		return prg, nil
	}

	env := fields
	if env == nil {
		env = map[string]any{}
	}

	prg, err := expr.Compile(filter,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, compileError{fmt.Errorf("compile lens %q: %w", filter, err)}
	}

	e.cache[filter] = prg
	return prg, nil
}
