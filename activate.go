package greenpatch

import (
	"sort"
	"strings"

	"github.com/baxromumarov/greenpatch/internal/logger"
	"github.com/baxromumarov/greenpatch/primitive"
)

// defaultOn is the built-in policy used when a request neither names the
// wildcard nor enables anything explicitly. Thread patching stays off.
var defaultOn = primitive.NewSet(primitive.OS, primitive.Select, primitive.Socket, primitive.Time)

// Setting is one entry of an activation request.
type Setting struct {
	Key     string
	Enabled bool
}

// Patch builds a [Setting]. Key is a primitive name or [primitive.Wildcard].
func Patch(key string, enabled bool) Setting {
	return Setting{Key: key, Enabled: enabled}
}

// RequestFromMap converts a configuration map into settings. Keys are
// emitted in sorted order; a map cannot repeat a key, so order does not
// affect the outcome.
func RequestFromMap(m map[string]bool) []Setting {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Setting, 0, len(keys))
	for _, k := range keys {
		out = append(out, Setting{Key: k, Enabled: m[k]})
	}
	return out
}

// Plan resolves settings into the set of primitives to activate without
// touching any state.
//
// Resolution rules:
//   - Every key must be a primitive name or the wildcard; otherwise Plan
//     fails with [*UnrecognizedOptionError] naming the key.
//   - A primitive named explicitly takes that value. When a key repeats,
//     the last setting wins.
//   - Otherwise, a wildcard setting decides.
//   - Otherwise, if any primitive was explicitly enabled, the rest stay off.
//   - Otherwise the built-in default policy applies (os, select, socket, time).
//
// Optional primitives that are not installed are skipped silently.
func (e *Environment) Plan(settings ...Setting) (primitive.Set, error) {
	var (
		wildcard    *bool
		explicit    = make(map[primitive.Name]bool)
		anyExplicit bool
	)

	for _, s := range settings {
		if strings.EqualFold(s.Key, primitive.Wildcard) {
			on := s.Enabled
			wildcard = &on
			continue
		}
		n, ok := primitive.Parse(s.Key)
		if !ok {
			return nil, &UnrecognizedOptionError{Key: s.Key}
		}
		explicit[n] = s.Enabled
	}
	for _, on := range explicit {
		if on {
			anyExplicit = true
			break
		}
	}

	plan := primitive.NewSet()
	for _, n := range primitive.Names() {
		var on bool
		switch v, ok := explicit[n]; {
		case ok:
			on = v
		case wildcard != nil:
			on = *wildcard
		case anyExplicit:
			on = false
		default:
			on = defaultOn.Has(n)
		}
		if !on {
			continue
		}
		if !e.reg.Installed(n) {
			logger.Debug("skipping primitive that is not installed", "primitive", string(n))
			continue
		}
		plan.Add(n)
	}
	return plan, nil
}

// Activate resolves settings with [Environment.Plan] and binds the
// cooperative implementation of every planned primitive. It returns the
// resolved set.
//
// Activating an already active primitive is a no-op. Validation happens
// before any mutation, so a rejected request leaves the environment
// unchanged. Code that captured a blocking implementation earlier keeps it.
func (e *Environment) Activate(settings ...Setting) (primitive.Set, error) {
	plan, err := e.Plan(settings...)
	if err != nil {
		return nil, err
	}

	var newly []primitive.Name

	e.mu.Lock()
	for _, n := range plan.Sorted() {
		if e.active.Has(n) {
			continue
		}
		pair, err := e.reg.Lookup(n)
		if err != nil {
			e.mu.Unlock()
			return nil, err
		}
		e.bindings[n] = pair.Cooperative
		e.active.Add(n)
		newly = append(newly, n)
	}
	total := e.active.Len()
	e.mu.Unlock()

	for _, n := range newly {
		logger.Info("primitive activated", "primitive", string(n))
		if e.cfg.metrics != nil {
			e.cfg.metrics.RecordActivation(string(n))
		}
		for _, hook := range e.cfg.onActivate {
			hook(n)
		}
	}
	if e.cfg.metrics != nil {
		e.cfg.metrics.SetActivePrimitives(total)
	}
	if len(newly) < plan.Len() {
		logger.Debug("activation found primitives already active",
			"requested", plan.String(),
			"newly_active", len(newly),
		)
	}
	return plan, nil
}
