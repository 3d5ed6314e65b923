package evm

import (
	"github.com/entropyio/go-evmcore/config"
	"github.com/holiman/uint256"
)

// Memory is the byte addressable linear memory of a single run. It only
// grows, newly exposed bytes read zero, and growth past
// config.MemoryCeiling fails the instruction instead of allocating.
type Memory struct {
	store []byte
}

func NewMemory() *Memory {
	return &Memory{}
}

// require grows the store so that size bytes at offset are addressable.
func (m *Memory) require(offset, size uint64) error {
	if size == 0 {
		return nil
	}
	end := offset + size
	if end < offset || end > config.MemoryCeiling {
		return ErrMemoryLimit
	}
	if end > uint64(len(m.store)) {
		m.store = append(m.store, make([]byte, end-uint64(len(m.store)))...)
	}
	return nil
}

// GetByte reads the byte at offset, growing memory as needed.
func (m *Memory) GetByte(offset uint64) (byte, error) {
	if err := m.require(offset, 1); err != nil {
		return 0, err
	}
	return m.store[offset], nil
}

// SetByte writes a single byte at offset, growing memory as needed.
func (m *Memory) SetByte(offset uint64, b byte) error {
	if err := m.require(offset, 1); err != nil {
		return err
	}
	m.store[offset] = b
	return nil
}

// GetWord reads 32 bytes big-endian starting at offset.
func (m *Memory) GetWord(offset uint64) (uint256.Int, error) {
	var word uint256.Int
	if err := m.require(offset, 32); err != nil {
		return word, err
	}
	word.SetBytes(m.store[offset : offset+32])
	return word, nil
}

// SetWord writes val as 32 bytes big-endian starting at offset.
func (m *Memory) SetWord(offset uint64, val *uint256.Int) error {
	if err := m.require(offset, 32); err != nil {
		return err
	}
	b32 := val.Bytes32()
	copy(m.store[offset:offset+32], b32[:])
	return nil
}

// Set writes data starting at offset. A zero length write is a no-op
// regardless of offset.
func (m *Memory) Set(offset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := m.require(offset, uint64(len(data))); err != nil {
		return err
	}
	copy(m.store[offset:], data)
	return nil
}

// GetCopy returns a copy of size bytes starting at offset. A zero size
// read yields nil regardless of offset.
func (m *Memory) GetCopy(offset, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if err := m.require(offset, size); err != nil {
		return nil, err
	}
	cpy := make([]byte, size)
	copy(cpy, m.store[offset:offset+size])
	return cpy, nil
}

// Copy moves length bytes from src to dst. Overlapping regions are
// handled like memmove: the builtin copy reads ahead of writes.
func (m *Memory) Copy(dst, src, length uint64) error {
	if length == 0 {
		return nil
	}
	if err := m.require(src, length); err != nil {
		return err
	}
	if err := m.require(dst, length); err != nil {
		return err
	}
	copy(m.store[dst:dst+length], m.store[src:src+length])
	return nil
}

// Len returns the current memory length in bytes.
func (m *Memory) Len() int {
	return len(m.store)
}

// Data returns the backing slice. Callers must not modify the contents.
func (m *Memory) Data() []byte {
	return m.store
}
