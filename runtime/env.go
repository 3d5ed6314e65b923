package runtime

import (
	"github.com/entropyio/go-evmcore/evm"
)

// NewEnv assembles a machine from the runtime configuration and the
// given transaction record.
func NewEnv(cfg *Config, tx evm.Transaction) *evm.EVM {
	block := evm.BlockContext{
		GetHash: cfg.GetHashFn,

		Coinbase:    cfg.Coinbase,
		GasLimit:    cfg.GasLimit,
		BlockNumber: cfg.BlockNumber,
		Time:        cfg.Time,
		BaseFee:     cfg.BaseFee,
		ChainID:     cfg.ChainConfig.ChainID,
	}

	return evm.NewEVM(block, tx, cfg.State)
}
