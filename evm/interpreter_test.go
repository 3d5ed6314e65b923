package evm

import (
	"math"
	"math/big"
	"testing"

	"github.com/entropyio/go-evmcore/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes raw code to completion in creation mode.
func run(t *testing.T, code []byte) *EVM {
	t.Helper()
	vm := newTestEVM(t, code)
	vm.Run()
	return vm
}

func TestRunArithmeticThroughMemory(t *testing.T) {
	// PUSH1 6, PUSH1 7, ADD, PUSH1 0, MSTORE, PUSH1 0, MLOAD, STOP
	code := []byte{
		byte(PUSH1), 6,
		byte(PUSH1), 7,
		byte(ADD),
		byte(PUSH1), 0,
		byte(MSTORE),
		byte(PUSH1), 0,
		byte(MLOAD),
		byte(STOP),
	}
	vm := run(t, code)

	require.Equal(t, StatusSuccess, vm.Status())
	require.NoError(t, vm.Err())
	require.Equal(t, 1, vm.Stack().Len())
	top, err := vm.Stack().Peek(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(13), top.Uint64())
}

func TestRunDivisionByZero(t *testing.T) {
	// PUSH1 10, PUSH1 0, DIV, STOP
	code := []byte{byte(PUSH1), 10, byte(PUSH1), 0, byte(DIV), byte(STOP)}
	vm := run(t, code)

	require.Equal(t, StatusSuccess, vm.Status())
	require.Equal(t, 1, vm.Stack().Len())
	top, err := vm.Stack().Peek(0)
	require.NoError(t, err)
	assert.True(t, top.IsZero())
}

func TestRunOffEndOfCodeIsImplicitStop(t *testing.T) {
	// PUSH1 5 with no STOP: falling off the end halts successfully.
	vm := run(t, []byte{byte(PUSH1), 5})

	assert.Equal(t, StatusSuccess, vm.Status())
	assert.NoError(t, vm.Err())
	assert.Equal(t, 1, vm.Stack().Len())
}

func TestRunEmptyCode(t *testing.T) {
	vm := run(t, nil)
	assert.Equal(t, StatusSuccess, vm.Status())
}

func TestJumpToValidDest(t *testing.T) {
	// PUSH1 4, JUMP, <unreachable INVALID>, JUMPDEST, PUSH1 1, STOP
	code := []byte{
		byte(PUSH1), 4,
		byte(JUMP),
		0xfe, // would fail if executed
		byte(JUMPDEST),
		byte(PUSH1), 1,
		byte(STOP),
	}
	vm := run(t, code)
	require.Equal(t, StatusSuccess, vm.Status())
	top, err := vm.Stack().Peek(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), top.Uint64())
}

func TestJumpToDestZero(t *testing.T) {
	// A JUMPDEST at offset 0 is a legal landing site. The loop below jumps
	// back to it exactly once: the first pass grows memory through MLOAD,
	// the second pass sees a nonzero MSIZE and takes the exit branch.
	code := []byte{
		byte(JUMPDEST), // 0
		byte(MSIZE),    // condition: 0 on the first pass, 32 after
		byte(PUSH1), 12,
		byte(JUMPI),    // 4: exit on the second pass
		byte(PUSH1), 0, // 5
		byte(MLOAD),    // 7: grows memory to one word
		byte(POP),      // 8
		byte(PUSH1), 0, // 9
		byte(JUMP),     // 11: back to 0
		byte(JUMPDEST), // 12
		byte(STOP),
	}
	vm := run(t, code)
	require.Equal(t, StatusSuccess, vm.Status())
	assert.Equal(t, 0, vm.Stack().Len())
	assert.True(t, vm.validJumpdest(uint256.NewInt(0)))
}

func TestJumpIntoPushDataFails(t *testing.T) {
	// Offset 4 holds the byte 0x5B, but as the immediate of PUSH1 it is
	// data, not a JUMPDEST.
	code := []byte{
		byte(PUSH1), 4,
		byte(JUMP),
		byte(PUSH1), byte(JUMPDEST),
		byte(STOP),
	}
	vm := run(t, code)
	assert.Equal(t, StatusFailure, vm.Status())
	assert.ErrorIs(t, vm.Err(), ErrInvalidJump)
}

func TestJumpOutOfRangeFails(t *testing.T) {
	code := []byte{byte(PUSH1), 200, byte(JUMP)}
	vm := run(t, code)
	assert.Equal(t, StatusFailure, vm.Status())
	assert.ErrorIs(t, vm.Err(), ErrInvalidJump)
}

func TestJumpiConditionZeroFallsThrough(t *testing.T) {
	// condition 0: no jump, fall through to STOP.
	code := []byte{
		byte(PUSH1), 0, // condition
		byte(PUSH1), 200, // target (invalid, but unused)
		byte(JUMPI),
		byte(STOP),
	}
	vm := run(t, code)
	assert.Equal(t, StatusSuccess, vm.Status())
}

func TestJumpiConditionNonzeroJumps(t *testing.T) {
	code := []byte{
		byte(PUSH1), 1, // condition
		byte(PUSH1), 6, // target
		byte(JUMPI),
		0xfe,
		byte(JUMPDEST),
		byte(STOP),
	}
	vm := run(t, code)
	assert.Equal(t, StatusSuccess, vm.Status())
}

func TestUndefinedOpcodeFails(t *testing.T) {
	vm := run(t, []byte{0xfe})
	assert.Equal(t, StatusFailure, vm.Status())
	var invalid *ErrInvalidOpCode
	assert.ErrorAs(t, vm.Err(), &invalid)
}

func TestStackUnderflowFailsRun(t *testing.T) {
	vm := run(t, []byte{byte(ADD)})
	assert.Equal(t, StatusFailure, vm.Status())
	assert.ErrorIs(t, vm.Err(), ErrStackUnderflow)
}

func TestStackOverflowFailsRun(t *testing.T) {
	// An unbounded push loop: JUMPDEST, PUSH1 1, PUSH1 0, JUMP repeated.
	code := []byte{
		byte(JUMPDEST),
		byte(PUSH1), 1,
		byte(PUSH1), 0,
		byte(JUMP),
	}
	vm := run(t, code)
	assert.Equal(t, StatusFailure, vm.Status())
	assert.ErrorIs(t, vm.Err(), ErrStackOverflow)
	// The stack must be capped at the limit.
	assert.LessOrEqual(t, vm.Stack().Len(), 1024)
}

func TestOutOfGasFailsRun(t *testing.T) {
	code := []byte{byte(PUSH1), 1, byte(PUSH1), 2, byte(ADD), byte(STOP)}
	vm := NewEVM(
		BlockContext{BlockNumber: big.NewInt(1)},
		Transaction{Data: code, GasLimit: 5}, // enough for one push only
		newTestStateDB(),
	)
	require.NoError(t, vm.LoadProgram())
	vm.Run()
	assert.Equal(t, StatusFailure, vm.Status())
	assert.ErrorIs(t, vm.Err(), ErrOutOfGas)
}

func TestStepGranularity(t *testing.T) {
	code := []byte{byte(PUSH1), 6, byte(PUSH1), 7, byte(ADD), byte(STOP)}
	vm := newTestEVM(t, code)

	vm.Step()
	assert.Equal(t, uint64(2), vm.PC())
	assert.Equal(t, 1, vm.Stack().Len())

	vm.Step()
	assert.Equal(t, uint64(4), vm.PC())
	assert.Equal(t, 2, vm.Stack().Len())

	vm.Step() // ADD
	assert.Equal(t, 1, vm.Stack().Len())
	assert.Equal(t, StatusRunning, vm.Status())

	vm.Step() // STOP
	assert.Equal(t, StatusSuccess, vm.Status())

	// Stepping a halted machine is a no-op.
	pc := vm.PC()
	vm.Step()
	assert.Equal(t, pc, vm.PC())
	assert.Equal(t, StatusSuccess, vm.Status())
}

func TestReturnCapturesMemory(t *testing.T) {
	// MSTORE 13 at 0, RETURN 32 bytes from 0.
	code := []byte{
		byte(PUSH1), 13,
		byte(PUSH1), 0,
		byte(MSTORE),
		byte(PUSH1), 32, // size
		byte(PUSH1), 0, // offset
		byte(RETURN),
	}
	vm := run(t, code)
	require.Equal(t, StatusSuccess, vm.Status())
	ret := vm.ReturnData()
	require.Len(t, ret, 32)
	assert.Equal(t, uint64(13), new(uint256.Int).SetBytes(ret).Uint64())
}

func TestReturnZeroLengthAtOutOfRangeOffset(t *testing.T) {
	// PUSH1 0 (size), PUSH1 100 (offset), RETURN: an empty return slice
	// from unbacked memory halts cleanly with no return data.
	code := []byte{
		byte(PUSH1), 0,
		byte(PUSH1), 100,
		byte(RETURN),
	}
	vm := run(t, code)
	require.Equal(t, StatusSuccess, vm.Status())
	assert.Empty(t, vm.ReturnData())

	code = []byte{
		byte(PUSH1), 0,
		byte(PUSH1), 100,
		byte(REVERT),
	}
	vm = run(t, code)
	require.Equal(t, StatusReverted, vm.Status())
	assert.Empty(t, vm.ReturnData())
}

func TestCallDataCopyZeroLengthAtOutOfRangeOffset(t *testing.T) {
	// Zero length with a huge destination offset copies nothing and does
	// not grow memory.
	vm := newTestEVM(t, nil)
	vm.tx.Data = []byte{0x11, 0x22}
	pc := uint64(0)

	vm.stack.push(uint256.NewInt(0))    // length
	vm.stack.push(uint256.NewInt(0))    // data offset
	vm.stack.push(uint256.NewInt(5000)) // mem offset
	require.NoError(t, opCallDataCopy(&pc, vm))
	assert.Equal(t, 0, vm.memory.Len())
}

func TestRevertSetsRevertedStatus(t *testing.T) {
	code := []byte{
		byte(PUSH1), 99,
		byte(PUSH1), 0,
		byte(MSTORE),
		byte(PUSH1), 32,
		byte(PUSH1), 0,
		byte(REVERT),
	}
	vm := run(t, code)
	assert.Equal(t, StatusReverted, vm.Status())
	assert.ErrorIs(t, vm.Err(), ErrExecutionReverted)
	require.Len(t, vm.ReturnData(), 32)
	assert.Equal(t, uint64(99), new(uint256.Int).SetBytes(vm.ReturnData()).Uint64())
}

func TestEnvironmentOpsPushContext(t *testing.T) {
	coinbase := common.HexToAddress("0x00000000000000000000000000000000000000cb")
	origin := common.HexToAddress("0x0000000000000000000000000000000000000011")
	code := []byte{
		byte(NUMBER),
		byte(TIMESTAMP),
		byte(GASLIMIT),
		byte(CHAINID),
		byte(BASEFEE),
		byte(COINBASE),
		byte(ORIGIN),
		byte(CALLVALUE),
		byte(STOP),
	}
	vm := NewEVM(
		BlockContext{
			Coinbase:    coinbase,
			GasLimit:    30_000_000,
			BlockNumber: big.NewInt(1234),
			Time:        1536026016,
			BaseFee:     big.NewInt(7),
			ChainID:     big.NewInt(3),
		},
		Transaction{
			From:     origin,
			Value:    uint256.NewInt(55),
			Data:     code,
			GasLimit: math.MaxUint64,
		},
		newTestStateDB(),
	)
	require.NoError(t, vm.LoadProgram())
	require.Equal(t, StatusSuccess, vm.Run())

	data := vm.Stack().Data()
	require.Len(t, data, 8)
	assert.Equal(t, uint64(1234), data[0].Uint64())
	assert.Equal(t, uint64(1536026016), data[1].Uint64())
	assert.Equal(t, uint64(30_000_000), data[2].Uint64())
	assert.Equal(t, uint64(3), data[3].Uint64())
	assert.Equal(t, uint64(7), data[4].Uint64())
	b32 := data[5].Bytes32()
	assert.Equal(t, common.LeftPadBytes(coinbase.Bytes(), 32), b32[:])
	b32 = data[6].Bytes32()
	assert.Equal(t, common.LeftPadBytes(origin.Bytes(), 32), b32[:])
	assert.Equal(t, uint64(55), data[7].Uint64())
}

func TestPcAndGasArePushed(t *testing.T) {
	code := []byte{byte(PC), byte(PC), byte(GAS), byte(STOP)}
	vm := run(t, code)
	require.Equal(t, StatusSuccess, vm.Status())
	data := vm.Stack().Data()
	require.Len(t, data, 3)
	assert.Equal(t, uint64(0), data[0].Uint64())
	assert.Equal(t, uint64(1), data[1].Uint64())
	assert.NotZero(t, data[2].Uint64(), "GAS must push the remaining budget")
}

func TestBlockhashWindow(t *testing.T) {
	known := common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000ff")
	vm := NewEVM(
		BlockContext{
			BlockNumber: big.NewInt(300),
			GetHash:     func(n uint64) common.Hash { return known },
		},
		Transaction{Data: []byte{byte(BLOCKHASH)}, GasLimit: math.MaxUint64},
		newTestStateDB(),
	)
	require.NoError(t, vm.LoadProgram())
	pc := uint64(0)

	// In range: one of the 256 most recent blocks.
	vm.Stack().push(uint256.NewInt(299))
	require.NoError(t, opBlockhash(&pc, vm))
	res := vm.Stack().pop()
	assert.Equal(t, known.Bytes(), common.LeftPadBytes(res.Bytes(), 32))

	// The current block and anything older than 256 read zero.
	vm.Stack().push(uint256.NewInt(300))
	require.NoError(t, opBlockhash(&pc, vm))
	res = vm.Stack().pop()
	assert.True(t, res.IsZero())

	vm.Stack().push(uint256.NewInt(10))
	require.NoError(t, opBlockhash(&pc, vm))
	res = vm.Stack().pop()
	assert.True(t, res.IsZero())
}

func TestMessageCallLoadsAccountCode(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	db := newTestStateDB()
	db.SetCode(to, []byte{byte(PUSH1), 5, byte(STOP)})

	vm := NewEVM(
		BlockContext{BlockNumber: big.NewInt(1)},
		Transaction{To: to, GasLimit: math.MaxUint64},
		db,
	)
	require.NoError(t, vm.LoadProgram())
	require.Equal(t, StatusSuccess, vm.Run())
	top, err := vm.Stack().Peek(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), top.Uint64())
}

func TestMessageCallUnknownAccount(t *testing.T) {
	vm := NewEVM(
		BlockContext{BlockNumber: big.NewInt(1)},
		Transaction{To: common.HexToAddress("0x01"), GasLimit: math.MaxUint64},
		newTestStateDB(),
	)
	err := vm.LoadProgram()
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestDupSwapPrograms(t *testing.T) {
	// PUSH1 1, PUSH1 2, DUP2, STOP -> stack [1, 2, 1]
	vm := run(t, []byte{byte(PUSH1), 1, byte(PUSH1), 2, byte(DUP2), byte(STOP)})
	require.Equal(t, StatusSuccess, vm.Status())
	data := vm.Stack().Data()
	require.Len(t, data, 3)
	assert.Equal(t, uint64(1), data[0].Uint64())
	assert.Equal(t, uint64(2), data[1].Uint64())
	assert.Equal(t, uint64(1), data[2].Uint64())

	// PUSH1 1, PUSH1 2, SWAP1, STOP -> stack [2, 1]
	vm = run(t, []byte{byte(PUSH1), 1, byte(PUSH1), 2, byte(SWAP1), byte(STOP)})
	require.Equal(t, StatusSuccess, vm.Status())
	data = vm.Stack().Data()
	require.Len(t, data, 2)
	assert.Equal(t, uint64(2), data[0].Uint64())
	assert.Equal(t, uint64(1), data[1].Uint64())

	// DUP2 on a single item underflows.
	vm = run(t, []byte{byte(PUSH1), 1, byte(DUP2)})
	assert.Equal(t, StatusFailure, vm.Status())
	assert.ErrorIs(t, vm.Err(), ErrStackUnderflow)
}

func TestStoragePersistsAcrossRuns(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	db := newTestStateDB()

	// First run: SSTORE key 1 value 42.
	db.SetCode(to, []byte{
		byte(PUSH1), 42,
		byte(PUSH1), 1,
		byte(SSTORE),
		byte(STOP),
	})
	vm := NewEVM(BlockContext{BlockNumber: big.NewInt(1)},
		Transaction{To: to, GasLimit: math.MaxUint64}, db)
	require.NoError(t, vm.LoadProgram())
	require.Equal(t, StatusSuccess, vm.Run())

	// Second run over the same storage: SLOAD key 1.
	db.SetCode(to, []byte{
		byte(PUSH1), 1,
		byte(SLOAD),
		byte(PUSH1), 9,
		byte(SLOAD),
		byte(STOP),
	})
	vm = NewEVM(BlockContext{BlockNumber: big.NewInt(2)},
		Transaction{To: to, GasLimit: math.MaxUint64}, db)
	require.NoError(t, vm.LoadProgram())
	require.Equal(t, StatusSuccess, vm.Run())

	data := vm.Stack().Data()
	require.Len(t, data, 2)
	assert.Equal(t, uint64(42), data[0].Uint64(), "stored slot survives across runs")
	assert.True(t, data[1].IsZero(), "unset slot reads zero")
}
