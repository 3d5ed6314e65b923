package evm

import (
	"github.com/entropyio/go-evmcore/config"
	"github.com/holiman/uint256"
)

// Stack is the LIFO operand container of a run, bounded at
// config.StackLimit items. The top of the stack is the most recently
// pushed word.
type Stack struct {
	data []uint256.Int
}

func NewStack() *Stack {
	return &Stack{data: make([]uint256.Int, 0, 16)}
}

// Data returns the underlying slice, bottom first. Callers must not
// modify the contents.
func (st *Stack) Data() []uint256.Int {
	return st.data
}

func (st *Stack) Len() int {
	return len(st.data)
}

// Push appends d to the top of the stack. When the depth limit would be
// exceeded it returns ErrStackOverflow and leaves the stack unchanged.
func (st *Stack) Push(d *uint256.Int) error {
	if uint64(len(st.data)) >= config.StackLimit {
		return ErrStackOverflow
	}
	st.data = append(st.data, *d)
	return nil
}

// Pop removes and returns the top word. An empty stack returns
// ErrStackUnderflow and stays empty.
func (st *Stack) Pop() (uint256.Int, error) {
	if len(st.data) == 0 {
		return uint256.Int{}, ErrStackUnderflow
	}
	return st.pop(), nil
}

// Peek returns a pointer to the n'th word from the top without removing
// it. Depth 0 is the top of the stack.
func (st *Stack) Peek(n int) (*uint256.Int, error) {
	if n < 0 || n >= len(st.data) {
		return nil, ErrStackUnderflow
	}
	return &st.data[len(st.data)-n-1], nil
}

// The unchecked accessors below are used by the instruction handlers.
// Depth bounds have already been validated against the jump table's
// minStack/maxStack by the time a handler runs.

func (st *Stack) push(d *uint256.Int) {
	st.data = append(st.data, *d)
}

func (st *Stack) pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

func (st *Stack) peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// back returns the n'th item in stack.
func (st *Stack) back(n int) *uint256.Int {
	return &st.data[len(st.data)-n-1]
}

func (st *Stack) swap(n int) {
	st.data[st.Len()-n], st.data[st.Len()-1] = st.data[st.Len()-1], st.data[st.Len()-n]
}

func (st *Stack) dup(n int) {
	st.push(&st.data[st.Len()-n])
}
