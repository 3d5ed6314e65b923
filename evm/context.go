package evm

import (
	"math/big"

	"github.com/entropyio/go-evmcore/common"
	"github.com/holiman/uint256"
)

// GetHashFunc returns the hash of the n'th block, used by BLOCKHASH.
type GetHashFunc func(uint64) common.Hash

// BlockContext is the block environment the VM exposes to executing
// code. It is supplied once at construction and never mutated.
type BlockContext struct {
	GetHash GetHashFunc

	Coinbase    common.Address
	GasLimit    uint64
	BlockNumber *big.Int
	Time        uint64
	BaseFee     *big.Int
	ChainID     *big.Int
}

// Transaction is the message record that triggers a run. A zero To
// address selects contract creation mode, where the payload itself is
// the program.
type Transaction struct {
	From     common.Address
	To       common.Address
	Nonce    uint64
	Value    *uint256.Int
	GasLimit uint64
	GasPrice *uint256.Int
	Data     []byte
}

// IsCreate reports whether the transaction runs in contract creation
// mode.
func (tx *Transaction) IsCreate() bool {
	return tx.To == (common.Address{})
}
