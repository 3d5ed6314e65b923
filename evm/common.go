package evm

import (
	"github.com/entropyio/go-evmcore/common"
	"github.com/holiman/uint256"
)

// getData returns a slice from the data based on the start and size and
// pads up to size with zero's. This function is overflow safe.
func getData(data []byte, start uint64, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	return common.RightPadBytes(data[start:end], int(size))
}

// asUint64 narrows a word operand used as a memory offset or length.
// Anything past 64 bits cannot be a sane allocation and fails the
// instruction with the memory ceiling error.
func asUint64(v *uint256.Int) (uint64, error) {
	n, overflow := v.Uint64WithOverflow()
	if overflow {
		return 0, ErrMemoryLimit
	}
	return n, nil
}
