package gate

import (
	"fmt"
	"sync"

	"github.com/leapstack-labs/provgate/pkg/core"
)

// globalRegistry is the single global catalog of compliance rules.
// Registration order is catalog order; it determines report ordering and
// nothing else.
var globalRegistry = &Registry{
	byID: make(map[string]RuleDef),
}

// Registry stores registered compliance rules in catalog order.
type Registry struct {
	mu      sync.RWMutex
	ordered []RuleDef
	byID    map[string]RuleDef
}

// Register adds a rule to the global catalog.
// Call this from init() functions in rule packages. Duplicate ids panic:
// the catalog is assembled at program start and a collision is a
// programming error.
func Register(rule RuleDef) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	if _, exists := globalRegistry.byID[rule.ID]; exists {
		panic(fmt.Sprintf("gate: duplicate rule id %q", rule.ID))
	}
	globalRegistry.byID[rule.ID] = rule
	globalRegistry.ordered = append(globalRegistry.ordered, rule)
}

// Rules returns all registered rules in catalog order.
func Rules() []RuleDef {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	out := make([]RuleDef, len(globalRegistry.ordered))
	copy(out, globalRegistry.ordered)
	return out
}

// RulesForTier returns the rules applicable at the given tier, preserving
// catalog order.
func RulesForTier(tier core.RiskTier) []RuleDef {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	var out []RuleDef
	for _, rule := range globalRegistry.ordered {
		if rule.AppliesTo(tier) {
			out = append(out, rule)
		}
	}
	return out
}

// RuleByID returns a rule by its id.
func RuleByID(id string) (RuleDef, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	rule, ok := globalRegistry.byID[id]
	return rule, ok
}

// Count returns the number of registered rules.
func Count() int {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	return len(globalRegistry.ordered)
}
