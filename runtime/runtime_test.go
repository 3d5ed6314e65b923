package runtime

import (
	"math"
	"math/big"
	"testing"

	"github.com/entropyio/go-evmcore/common"
	"github.com/entropyio/go-evmcore/evm"
	"github.com/entropyio/go-evmcore/state"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := new(Config)
	setDefaults(cfg)

	require.NotNil(t, cfg.ChainConfig)
	assert.NotZero(t, cfg.Time)
	assert.Equal(t, uint64(math.MaxUint64), cfg.GasLimit)
	assert.NotNil(t, cfg.GasPrice)
	assert.NotNil(t, cfg.Value)
	assert.NotNil(t, cfg.BlockNumber)
	assert.NotNil(t, cfg.BaseFee)
	assert.NotNil(t, cfg.State)
	assert.NotNil(t, cfg.GetHashFn)
}

func TestExecute(t *testing.T) {
	// PUSH1 10, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	ret, err := Execute([]byte{
		byte(evm.PUSH1), 10,
		byte(evm.PUSH1), 0,
		byte(evm.MSTORE),
		byte(evm.PUSH1), 32,
		byte(evm.PUSH1), 0,
		byte(evm.RETURN),
	}, nil, nil)
	require.NoError(t, err)

	num := new(uint256.Int).SetBytes(ret)
	assert.Equal(t, uint64(10), num.Uint64())
}

func TestExecuteEchoesCallData(t *testing.T) {
	// Copy the full call data to memory and return it.
	code := []byte{
		byte(evm.CALLDATASIZE), // length
		byte(evm.PUSH1), 0,     // data offset
		byte(evm.PUSH1), 0, // mem offset
		byte(evm.CALLDATACOPY),
		byte(evm.CALLDATASIZE), // size
		byte(evm.PUSH1), 0,     // offset
		byte(evm.RETURN),
	}
	input := []byte{0xde, 0xad, 0xbe, 0xef, 0x42}
	ret, err := Execute(code, input, nil)
	require.NoError(t, err)
	assert.Equal(t, input, ret)
}

func TestCall(t *testing.T) {
	cfg := new(Config)
	setDefaults(cfg)

	address := common.HexToAddress("0x0a")
	cfg.State.SetCode(address, []byte{
		byte(evm.PUSH1), 10,
		byte(evm.PUSH1), 0,
		byte(evm.MSTORE),
		byte(evm.PUSH1), 32,
		byte(evm.PUSH1), 0,
		byte(evm.RETURN),
	})

	ret, leftover, err := Call(address, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), new(uint256.Int).SetBytes(ret).Uint64())
	assert.Less(t, leftover, cfg.GasLimit, "execution must consume gas")
}

func TestCallUnknownAccount(t *testing.T) {
	cfg := new(Config)
	setDefaults(cfg)

	_, _, err := Call(common.HexToAddress("0x0b"), nil, cfg)
	require.ErrorIs(t, err, evm.ErrUnknownAccount)

	// A nil config gets the defaults, like Execute and Create.
	_, _, err = Call(common.HexToAddress("0x0b"), nil, nil)
	require.ErrorIs(t, err, evm.ErrUnknownAccount)
}

func TestCallValueTransfer(t *testing.T) {
	origin := common.HexToAddress("0x01")
	target := common.HexToAddress("0x02")

	cfg := &Config{
		Origin: origin,
		Value:  uint256.NewInt(40),
		State:  state.NewMemDB(),
	}
	setDefaults(cfg)
	cfg.State.SetCode(target, []byte{byte(evm.STOP)})

	// Not enough funds on the origin.
	_, _, err := Call(target, nil, cfg)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	cfg.State.AddBalance(origin, uint256.NewInt(100))
	_, _, err = Call(target, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), cfg.State.GetBalance(origin).Uint64())
	assert.Equal(t, uint64(40), cfg.State.GetBalance(target).Uint64())
}

func TestCreate(t *testing.T) {
	// Creation mode executes the payload itself. The program returns one
	// word of "runtime code" from memory.
	ret, leftover, err := Create([]byte{
		byte(evm.PUSH1), 42,
		byte(evm.PUSH1), 0,
		byte(evm.MSTORE),
		byte(evm.PUSH1), 32,
		byte(evm.PUSH1), 0,
		byte(evm.RETURN),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), new(uint256.Int).SetBytes(ret).Uint64())
	assert.NotZero(t, leftover)
}

func TestExecuteRevertSurfacesError(t *testing.T) {
	ret, err := Execute([]byte{
		byte(evm.PUSH1), 7,
		byte(evm.PUSH1), 0,
		byte(evm.MSTORE),
		byte(evm.PUSH1), 32,
		byte(evm.PUSH1), 0,
		byte(evm.REVERT),
	}, nil, nil)
	require.ErrorIs(t, err, evm.ErrExecutionReverted)
	// The revert payload is still delivered alongside the error.
	assert.Equal(t, uint64(7), new(uint256.Int).SetBytes(ret).Uint64())
}

func TestExecuteOutOfGas(t *testing.T) {
	cfg := &Config{GasLimit: 5}
	_, err := Execute([]byte{
		byte(evm.PUSH1), 1,
		byte(evm.PUSH1), 2,
		byte(evm.ADD),
		byte(evm.STOP),
	}, nil, cfg)
	require.ErrorIs(t, err, evm.ErrOutOfGas)
}

func TestStatePersistsBetweenExecutions(t *testing.T) {
	cfg := &Config{State: state.NewMemDB()}

	// First execution stores 42 under key 1.
	_, err := Execute([]byte{
		byte(evm.PUSH1), 42,
		byte(evm.PUSH1), 1,
		byte(evm.SSTORE),
		byte(evm.STOP),
	}, nil, cfg)
	require.NoError(t, err)

	// Second execution over the same state reads the slot back.
	ret, err := Execute([]byte{
		byte(evm.PUSH1), 1,
		byte(evm.SLOAD),
		byte(evm.PUSH1), 0,
		byte(evm.MSTORE),
		byte(evm.PUSH1), 32,
		byte(evm.PUSH1), 0,
		byte(evm.RETURN),
	}, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), new(uint256.Int).SetBytes(ret).Uint64())

	// An unset slot reads zero.
	ret, err = Execute([]byte{
		byte(evm.PUSH1), 9,
		byte(evm.SLOAD),
		byte(evm.PUSH1), 0,
		byte(evm.MSTORE),
		byte(evm.PUSH1), 32,
		byte(evm.PUSH1), 0,
		byte(evm.RETURN),
	}, nil, cfg)
	require.NoError(t, err)
	assert.True(t, new(uint256.Int).SetBytes(ret).IsZero())
}

func TestBlockContextVisible(t *testing.T) {
	cfg := &Config{
		Coinbase:    common.HexToAddress("0xcb"),
		BlockNumber: big.NewInt(42),
		Time:        1536026016,
		GasLimit:    10_000_000,
		BaseFee:     big.NewInt(7),
	}

	// NUMBER, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	ret, err := Execute([]byte{
		byte(evm.NUMBER),
		byte(evm.PUSH1), 0,
		byte(evm.MSTORE),
		byte(evm.PUSH1), 32,
		byte(evm.PUSH1), 0,
		byte(evm.RETURN),
	}, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), new(uint256.Int).SetBytes(ret).Uint64())
}
