package evm

import (
	"github.com/entropyio/go-evmcore/common"
	"github.com/holiman/uint256"
)

// StateDB is the account storage the VM reads and mutates during a run.
// The implementation is owned by the embedding layer and shared across
// runs; the VM borrows it for the duration of one execution.
//
// Reads are total: an address without a record behaves as an empty
// account with zero balance, empty code and all-zero storage slots.
// Writes create the record on first use. Exist is the one strict
// primitive, used where an account is required to pre-exist.
type StateDB interface {
	CreateAccount(common.Address)
	Exist(common.Address) bool

	GetBalance(common.Address) *uint256.Int
	AddBalance(common.Address, *uint256.Int)
	SubBalance(common.Address, *uint256.Int)

	GetCode(common.Address) []byte
	GetCodeSize(common.Address) int
	SetCode(common.Address, []byte)

	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash)
}
