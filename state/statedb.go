package state

import (
	"github.com/entropyio/go-evmcore/common"
	"github.com/entropyio/go-evmcore/evm"
	"github.com/holiman/uint256"
)

// stateObject is the in-memory representation of one account: balance,
// code and the persistent word indexed storage slots.
type stateObject struct {
	balance uint256.Int
	code    []byte
	storage map[common.Hash]common.Hash
}

func newStateObject() *stateObject {
	return &stateObject{storage: make(map[common.Hash]common.Hash)}
}

// MemDB is an in-memory account store implementing evm.StateDB. Reads
// are total: unknown addresses behave as empty accounts. Writes create
// the account record on first use. A MemDB outlives any single run and
// may be shared across sequential executions; it performs no locking.
type MemDB struct {
	objects map[common.Address]*stateObject
}

var _ evm.StateDB = (*MemDB)(nil)

func NewMemDB() *MemDB {
	return &MemDB{objects: make(map[common.Address]*stateObject)}
}

func (db *MemDB) getOrNew(addr common.Address) *stateObject {
	obj := db.objects[addr]
	if obj == nil {
		obj = newStateObject()
		db.objects[addr] = obj
	}
	return obj
}

// CreateAccount explicitly materialises an empty account record.
func (db *MemDB) CreateAccount(addr common.Address) {
	db.getOrNew(addr)
}

// Exist reports whether an account record has been materialised for
// addr. This is the strict lookup used to resolve message call code.
func (db *MemDB) Exist(addr common.Address) bool {
	return db.objects[addr] != nil
}

// GetBalance returns a copy of the account balance, zero for unknown
// addresses.
func (db *MemDB) GetBalance(addr common.Address) *uint256.Int {
	if obj := db.objects[addr]; obj != nil {
		return new(uint256.Int).Set(&obj.balance)
	}
	return new(uint256.Int)
}

func (db *MemDB) AddBalance(addr common.Address, amount *uint256.Int) {
	obj := db.getOrNew(addr)
	obj.balance.Add(&obj.balance, amount)
}

func (db *MemDB) SubBalance(addr common.Address, amount *uint256.Int) {
	obj := db.getOrNew(addr)
	obj.balance.Sub(&obj.balance, amount)
}

// GetCode returns the account code, empty for unknown addresses.
func (db *MemDB) GetCode(addr common.Address) []byte {
	if obj := db.objects[addr]; obj != nil {
		return obj.code
	}
	return nil
}

func (db *MemDB) GetCodeSize(addr common.Address) int {
	if obj := db.objects[addr]; obj != nil {
		return len(obj.code)
	}
	return 0
}

func (db *MemDB) SetCode(addr common.Address, code []byte) {
	db.getOrNew(addr).code = common.CopyBytes(code)
}

// GetState returns the storage slot value, the zero hash for unset
// slots and unknown addresses. Every slot exists, implicitly zero.
func (db *MemDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if obj := db.objects[addr]; obj != nil {
		return obj.storage[key]
	}
	return common.Hash{}
}

func (db *MemDB) SetState(addr common.Address, key, value common.Hash) {
	db.getOrNew(addr).storage[key] = value
}
