package contextmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contextcore/pkg/config"
)

func TestGetOptimizerKnownStrategies(t *testing.T) {
	estimator := NewCharEstimator()

	opt, err := GetOptimizer(config.StrategyTruncate, estimator)
	require.NoError(t, err)
	assert.IsType(t, &TruncateOptimizer{}, opt)

	opt, err = GetOptimizer(config.StrategySlidingWindow, estimator)
	require.NoError(t, err)
	assert.IsType(t, &SlidingWindowOptimizer{}, opt)

	opt, err = GetOptimizer(config.StrategyPruneTools, estimator)
	require.NoError(t, err)
	assert.IsType(t, &PruneToolsOptimizer{}, opt)

	opt, err = GetOptimizer(config.StrategySmart, estimator)
	require.NoError(t, err)
	assert.IsType(t, &SmartOptimizer{}, opt)
}

func TestGetOptimizerStrategyNames(t *testing.T) {
	estimator := NewCharEstimator()
	for _, strategy := range []string{
		config.StrategyTruncate,
		config.StrategySlidingWindow,
		config.StrategyPruneTools,
		config.StrategySmart,
	} {
		opt, err := GetOptimizer(strategy, estimator)
		require.NoError(t, err)
		assert.Equal(t, strategy, opt.Strategy())
	}
}

func TestGetOptimizerUnknownStrategy(t *testing.T) {
	_, err := GetOptimizer("bogus", NewCharEstimator())
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "bogus")
}
