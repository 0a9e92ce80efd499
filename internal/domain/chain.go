package domain

// ExecutionState describes whether a chain may execute real transactions.
type ExecutionState string

const (
	// ExecutionEnabled means live execution is allowed on this chain.
	ExecutionEnabled ExecutionState = "ENABLED"
	// ExecutionConfigured means the chain has a validated RPC but execution
	// stays blocked.
	ExecutionConfigured ExecutionState = "CONFIGURED"
	// ExecutionDisabled means the chain is not configured at all.
	ExecutionDisabled ExecutionState = "DISABLED"
)

// ChainDescriptor is the immutable metadata for one network. Descriptors are
// defined in a static table at process start and never mutated.
type ChainDescriptor struct {
	ChainID      int64
	Name         string
	NativeSymbol string
}

// GasPrice is a point-in-time gas quote for one chain.
type GasPrice struct {
	ChainID int64
	Wei     uint64
	Gwei    float64
}
