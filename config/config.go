package config

import "math/big"

const (
	// StackLimit is the maximum depth of the evaluation stack.
	StackLimit uint64 = 1024

	// MemoryCeiling bounds linear memory growth for a single run. A store
	// or load whose end offset lands past the ceiling fails the run
	// instead of allocating.
	MemoryCeiling uint64 = 1 << 26

	// InitialBaseFee is the base fee used when the embedding layer does
	// not supply one.
	InitialBaseFee = 1000000000
)

// Step costs charged against the run's gas budget, one constant per
// opcode tier. The budget is a termination guarantee, not a fee market.
const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20

	GasJumpdest  uint64 = 1
	GasBalance   uint64 = 100
	GasSload     uint64 = 100
	GasSstore    uint64 = 5000
	GasBlockhash uint64 = 20
)

// ChainConfig carries the chain parameters the VM exposes to executing
// code. ChainID identifies the current chain and is used for replay
// protection.
type ChainConfig struct {
	ChainID *big.Int `json:"chainId"`
}

var (
	// DefaultChainConfig is used when the embedding layer does not care
	// about chain identity.
	DefaultChainConfig = &ChainConfig{ChainID: big.NewInt(1)}

	TestChainConfig = DefaultChainConfig
)
