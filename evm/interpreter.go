package evm

import (
	"errors"
	"fmt"

	"github.com/entropyio/go-evmcore/logger"
	"github.com/holiman/uint256"
)

var log = logger.NewLogger("[evm]")

// Status is the run state of a machine. It starts at StatusRunning and
// is terminal once it leaves it: no further instruction executes.
type Status int

const (
	StatusRunning Status = iota
	StatusSuccess
	StatusFailure
	StatusReverted
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "halted (success)"
	case StatusFailure:
		return "halted (failure)"
	case StatusReverted:
		return "reverted"
	default:
		return fmt.Sprintf("status %d", int(s))
	}
}

// The dispatch table is immutable once built, so one instance is shared
// by every machine in the process.
var instructionSet = newInstructionSet()

// EVM is one interpreter instance. It exclusively owns its stack and
// memory for the lifetime of a single run and borrows the account
// storage from the embedding layer. It is not safe for concurrent use.
type EVM struct {
	block BlockContext
	tx    Transaction

	stack   *Stack
	memory  *Memory
	statedb StateDB
	table   *JumpTable

	jumpdests bitvec
	codeSize  uint64

	pc         uint64
	gas        uint64
	status     Status
	err        error
	returnData []byte
}

// NewEVM returns a machine over the given context and storage. The gas
// budget is armed from the transaction's gas limit; LoadProgram must be
// called before the first Step.
func NewEVM(block BlockContext, tx Transaction, statedb StateDB) *EVM {
	if tx.Value == nil {
		tx.Value = new(uint256.Int)
	}
	if tx.GasPrice == nil {
		tx.GasPrice = new(uint256.Int)
	}
	return &EVM{
		block:   block,
		tx:      tx,
		stack:   NewStack(),
		memory:  NewMemory(),
		statedb: statedb,
		table:   &instructionSet,
		gas:     tx.GasLimit,
	}
}

// LoadProgram seeds linear memory with the executing code: the
// transaction payload in contract creation mode, the recipient's stored
// code otherwise. The recipient account must exist in message call mode.
// It also classifies jump destinations, which requires a pass over the
// code before the first instruction runs.
func (evm *EVM) LoadProgram() error {
	var code []byte
	if evm.tx.IsCreate() {
		code = evm.tx.Data
	} else {
		if !evm.statedb.Exist(evm.tx.To) {
			return fmt.Errorf("%w: %s has no code to call", ErrUnknownAccount, evm.tx.To.Hex())
		}
		code = evm.statedb.GetCode(evm.tx.To)
	}
	if err := evm.memory.Set(0, code); err != nil {
		return err
	}
	evm.codeSize = uint64(len(code))
	evm.jumpdests = codeBitmap(code)
	return nil
}

// validJumpdest reports whether dest is a legal landing site: in range,
// a JUMPDEST byte, and not the immediate data of a preceding push.
func (evm *EVM) validJumpdest(dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	if overflow || udest >= evm.codeSize {
		return false
	}
	if OpCode(evm.memory.Data()[udest]) != JUMPDEST {
		return false
	}
	return evm.jumpdests.codeSegment(udest)
}

// Step performs exactly one fetch-decode-execute iteration. It is the
// hook external tooling (debuggers, tracers, metering) interposes on.
// Calling Step on a halted machine is a no-op.
func (evm *EVM) Step() {
	if evm.status != StatusRunning {
		return
	}
	// Running off the end of code is an implicit STOP.
	if evm.pc >= evm.codeSize {
		evm.status = StatusSuccess
		return
	}
	op := OpCode(evm.memory.Data()[evm.pc])
	operation := evm.table[op]

	// Budget check happens once per iteration, before dispatch, so every
	// run is guaranteed to terminate.
	if evm.gas < operation.constantGas {
		evm.halt(ErrOutOfGas)
		return
	}
	evm.gas -= operation.constantGas

	if sLen := evm.stack.Len(); sLen < operation.minStack {
		evm.halt(fmt.Errorf("%w: %s needs %d items, have %d", ErrStackUnderflow, op, operation.minStack, sLen))
		return
	} else if sLen > operation.maxStack {
		evm.halt(fmt.Errorf("%w (%d)", ErrStackOverflow, sLen))
		return
	}

	log.Debugf("pc=%4d op=%-12v gas=%d stack=%d", evm.pc, op, evm.gas, evm.stack.Len())

	pc := evm.pc
	err := operation.execute(&pc, evm)
	switch {
	case err == nil:
		evm.pc = pc + 1
	case errors.Is(err, errStopToken):
		evm.status = StatusSuccess
	case errors.Is(err, ErrExecutionReverted):
		evm.status = StatusReverted
		evm.err = err
	default:
		evm.halt(err)
	}
}

// Run drives the machine to completion and returns the final status.
func (evm *EVM) Run() Status {
	for evm.status == StatusRunning {
		evm.Step()
	}
	if evm.err != nil {
		log.Debugf("run ended: %v (%v)", evm.status, evm.err)
	}
	return evm.status
}

func (evm *EVM) halt(err error) {
	evm.status = StatusFailure
	evm.err = err
}

// Status returns the current run state.
func (evm *EVM) Status() Status { return evm.status }

// Err returns the failure that terminated the run, nil while running or
// after a clean halt.
func (evm *EVM) Err() error { return evm.err }

// PC returns the current program counter.
func (evm *EVM) PC() uint64 { return evm.pc }

// Gas returns the remaining step budget.
func (evm *EVM) Gas() uint64 { return evm.gas }

// ReturnData returns the bytes captured by RETURN or REVERT.
func (evm *EVM) ReturnData() []byte { return evm.returnData }

// Stack exposes the evaluation stack for harnesses and tests.
func (evm *EVM) Stack() *Stack { return evm.stack }

// Memory exposes the linear memory for harnesses and tests.
func (evm *EVM) Memory() *Memory { return evm.memory }

// StateDB returns the borrowed account storage.
func (evm *EVM) StateDB() StateDB { return evm.statedb }
