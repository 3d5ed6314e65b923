package runtime

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/entropyio/go-evmcore/chain"
	"github.com/entropyio/go-evmcore/common"
	"github.com/entropyio/go-evmcore/common/crypto"
	"github.com/entropyio/go-evmcore/config"
	"github.com/entropyio/go-evmcore/evm"
	"github.com/entropyio/go-evmcore/logger"
	"github.com/entropyio/go-evmcore/state"
	"github.com/holiman/uint256"
)

var log = logger.NewLogger("[runtime]")

// ErrInsufficientBalance is returned when the configured origin cannot
// cover the value transfer of a call.
var ErrInsufficientBalance = errors.New("insufficient balance for transfer")

// Config is a basic type specifying certain configuration flags for running
// the EVM.
type Config struct {
	ChainConfig *config.ChainConfig
	Origin      common.Address
	Coinbase    common.Address
	BlockNumber *big.Int
	Time        uint64
	GasLimit    uint64
	GasPrice    *uint256.Int
	Value       *uint256.Int
	BaseFee     *big.Int

	State     *state.MemDB
	GetHashFn func(n uint64) common.Hash
}

// sets defaults on the config
func setDefaults(cfg *Config) {
	if cfg.ChainConfig == nil {
		cfg.ChainConfig = config.DefaultChainConfig
	}
	if cfg.Time == 0 {
		cfg.Time = uint64(time.Now().Unix())
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = math.MaxUint64
	}
	if cfg.GasPrice == nil {
		cfg.GasPrice = new(uint256.Int)
	}
	if cfg.Value == nil {
		cfg.Value = new(uint256.Int)
	}
	if cfg.BlockNumber == nil {
		cfg.BlockNumber = new(big.Int)
	}
	if cfg.BaseFee == nil {
		cfg.BaseFee = big.NewInt(config.InitialBaseFee)
	}
	if cfg.State == nil {
		cfg.State = state.NewMemDB()
	}
	if cfg.GetHashFn == nil {
		cfg.GetHashFn = func(n uint64) common.Hash {
			return crypto.Keccak256Hash(new(big.Int).SetUint64(n).Bytes())
		}
	}
}

// Execute executes the code using the input as call data during the execution.
// It returns the machine's return data and an error if the run failed.
//
// Execute sets up an in-memory, temporary, environment for the execution
// of the given code: the code is installed on a scratch account which
// then receives a regular message call.
func Execute(code, input []byte, cfg *Config) ([]byte, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	address := common.BytesToAddress([]byte("contract"))
	cfg.State.CreateAccount(address)
	// set the receiver's (the executing contract) code for execution.
	cfg.State.SetCode(address, code)
	log.Debugf("execute address:%x, code len:%d, input len:%d", address, len(code), len(input))

	ret, _, err := Call(address, input, cfg)
	return ret, err
}

// Create runs the input as a program in contract creation mode (the
// recipient is the zero address, the payload is the code). It returns
// the program's return data, the leftover gas and any failure.
func Create(input []byte, cfg *Config) ([]byte, uint64, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	tx := evm.Transaction{
		From:     cfg.Origin,
		To:       common.Address{},
		Value:    cfg.Value,
		GasLimit: cfg.GasLimit,
		GasPrice: cfg.GasPrice,
		Data:     input,
	}
	vmenv := NewEnv(cfg, tx)
	if err := vmenv.LoadProgram(); err != nil {
		return nil, vmenv.Gas(), err
	}
	status := vmenv.Run()
	return vmenv.ReturnData(), vmenv.Gas(), statusError(status, vmenv.Err())
}

// Call executes the code of the account at the given address, using
// input as call data. It returns the machine's return data, the leftover
// gas and an error if the run failed.
//
// Call, unlike Execute, requires the account to already exist in the
// configured State; an unknown address fails with evm.ErrUnknownAccount.
func Call(address common.Address, input []byte, cfg *Config) ([]byte, uint64, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	tx := evm.Transaction{
		From:     cfg.Origin,
		To:       address,
		Value:    cfg.Value,
		GasLimit: cfg.GasLimit,
		GasPrice: cfg.GasPrice,
		Data:     input,
	}
	vmenv := NewEnv(cfg, tx)
	if err := vmenv.LoadProgram(); err != nil {
		return nil, vmenv.Gas(), err
	}
	if !cfg.Value.IsZero() {
		if !chain.CanTransfer(cfg.State, cfg.Origin, cfg.Value) {
			return nil, vmenv.Gas(), fmt.Errorf("%w: origin %s", ErrInsufficientBalance, cfg.Origin.Hex())
		}
		chain.Transfer(cfg.State, cfg.Origin, address, cfg.Value)
	}
	log.Debugf("call address:%x, input len:%d", address, len(input))

	status := vmenv.Run()
	return vmenv.ReturnData(), vmenv.Gas(), statusError(status, vmenv.Err())
}

// statusError translates a terminal machine status into the runtime's
// error convention: a clean halt is nil, everything else surfaces the
// machine error.
func statusError(status evm.Status, err error) error {
	if status == evm.StatusSuccess {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("execution ended with status: %v", status)
}
