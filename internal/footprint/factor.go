package footprint

import (
	"fmt"

	"github.com/dukerupert/footprint/internal/model"
)

// FactorProvider looks up the kg CO2e per unit for an activity. ok is false
// when the provider has no value; err reports a failed lookup.
type FactorProvider interface {
	Lookup(category, name string) (value float64, ok bool, err error)
}

// FactorChain resolves a factor by asking each provider in order.
type FactorChain []FactorProvider

// Resolve returns the first provider's value for (category, name), or 0
// when no provider knows the activity. A provider error stops the chain.
func (c FactorChain) Resolve(category, name string) (float64, error) {
	for _, p := range c {
		v, ok, err := p.Lookup(category, name)
		if err != nil {
			return 0, err
		}
		if ok {
			return v, nil
		}
	}
	return 0, nil
}

// StaticFactors is a fixed factor table keyed by activity name.
type StaticFactors map[string]float64

func (s StaticFactors) Lookup(_, name string) (float64, bool, error) {
	v, ok := s[name]
	return v, ok, nil
}

// FactorSource is satisfied by store.EmissionFactorStore.
type FactorSource interface {
	GetActive(category, name string) (*model.EmissionFactor, error)
}

type overrideFactors struct {
	src FactorSource
}

// NewOverrideFactors returns a provider backed by the active rows of the
// emission factor table.
func NewOverrideFactors(src FactorSource) FactorProvider {
	return &overrideFactors{src: src}
}

func (o *overrideFactors) Lookup(category, name string) (float64, bool, error) {
	f, err := o.src.GetActive(category, name)
	if err != nil {
		return 0, false, fmt.Errorf("resolve factor %s/%s: %w", category, name, err)
	}
	if f == nil {
		return 0, false, nil
	}
	return f.Value, true, nil
}
