package contextmgr

import (
	"fmt"

	"contextcore/pkg/config"
)

// optimizerConstructors is the closed strategy registry, built once at init.
// Adding a strategy means adding a config constant and an entry here.
var optimizerConstructors = map[string]func(TokenEstimator) Optimizer{
	config.StrategyTruncate:      func(e TokenEstimator) Optimizer { return NewTruncateOptimizer(e) },
	config.StrategySlidingWindow: func(e TokenEstimator) Optimizer { return NewSlidingWindowOptimizer(e) },
	config.StrategyPruneTools:    func(e TokenEstimator) Optimizer { return NewPruneToolsOptimizer(e) },
	config.StrategySmart:         func(e TokenEstimator) Optimizer { return NewSmartOptimizer(e) },
}

// GetOptimizer returns the optimizer implementing the named strategy. Unknown
// strategies are a configuration error, raised where the lookup happens.
func GetOptimizer(strategy string, estimator TokenEstimator) (Optimizer, error) {
	construct, ok := optimizerConstructors[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", config.ErrInvalidConfig, strategy)
	}
	return construct(estimator), nil
}
