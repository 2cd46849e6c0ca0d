package contextmgr

// TokenBudget derives usable conversation capacity from a model's context
// limit and a reserved output allowance. It is a pure value object: recompute
// by constructing a new one when the model or reserve changes.
type TokenBudget struct {
	ModelLimit    int
	OutputReserve int
}

// NewTokenBudget creates a budget for the given model context limit and
// output reserve.
func NewTokenBudget(modelLimit, outputReserve int) TokenBudget {
	return TokenBudget{
		ModelLimit:    modelLimit,
		OutputReserve: outputReserve,
	}
}

// Usable returns the token capacity available to the conversation, clamped
// at zero when the reserve meets or exceeds the model limit.
func (b TokenBudget) Usable() int {
	usable := b.ModelLimit - b.OutputReserve
	if usable < 0 {
		return 0
	}
	return usable
}

// Degraded reports whether the budget leaves no usable capacity. Compaction
// under a degraded budget targets the protected minimum rather than erroring.
func (b TokenBudget) Degraded() bool {
	return b.Usable() == 0
}
