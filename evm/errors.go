package evm

import (
	"errors"
	"fmt"
)

// Execution failures. All of them terminate the current run through the
// machine status, never the host process.
var (
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrStackOverflow     = errors.New("stack limit reached")
	ErrInvalidJump       = errors.New("invalid jump destination")
	ErrMemoryLimit       = errors.New("memory ceiling exceeded")
	ErrOutOfGas          = errors.New("out of gas")
	ErrExecutionReverted = errors.New("execution reverted")

	// ErrUnknownAccount is returned by strict lookups, e.g. resolving the
	// code of a message call recipient that has no account record. It is
	// an embedding layer error, unlike the default-to-zero state reads.
	ErrUnknownAccount = errors.New("unknown account")

	// errStopToken is an internal token signalling a deliberate halt. It
	// never escapes the interpreter loop.
	errStopToken = errors.New("stop token")
)

// ErrInvalidOpCode is reported when the fetched byte has no assigned
// instruction.
type ErrInvalidOpCode struct {
	opcode OpCode
}

func (e *ErrInvalidOpCode) Error() string {
	return fmt.Sprintf("invalid opcode: %s", e.opcode)
}
