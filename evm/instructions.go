package evm

import (
	"github.com/entropyio/go-evmcore/common"
	"github.com/holiman/uint256"
)

// Binary arithmetic and comparison handlers share one operand order: the
// first pop is the right hand operand, the value below it the left hand
// operand. PUSH a, PUSH b, SUB therefore computes a-b.

func opAdd(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	x.Add(x, &y)
	return nil
}

func opMul(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	x.Mul(x, &y)
	return nil
}

func opSub(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	x.Sub(x, &y)
	return nil
}

func opDiv(pc *uint64, evm *EVM) error {
	// Div yields zero for a zero divisor, no fault.
	y, x := evm.stack.pop(), evm.stack.peek()
	x.Div(x, &y)
	return nil
}

func opSdiv(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	x.SDiv(x, &y)
	return nil
}

func opMod(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	x.Mod(x, &y)
	return nil
}

func opSmod(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	x.SMod(x, &y)
	return nil
}

func opAddmod(pc *uint64, evm *EVM) error {
	// The reduction applies to the full width inner sum; a zero modulus
	// yields zero.
	x, y := evm.stack.pop(), evm.stack.pop()
	z := evm.stack.peek()
	z.AddMod(&x, &y, z)
	return nil
}

func opMulmod(pc *uint64, evm *EVM) error {
	x, y := evm.stack.pop(), evm.stack.pop()
	z := evm.stack.peek()
	z.MulMod(&x, &y, z)
	return nil
}

func opExp(pc *uint64, evm *EVM) error {
	exponent, base := evm.stack.pop(), evm.stack.peek()
	base.Exp(base, &exponent)
	return nil
}

func opSignExtend(pc *uint64, evm *EVM) error {
	back, num := evm.stack.pop(), evm.stack.peek()
	num.ExtendSign(num, &back)
	return nil
}

func opLt(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	if x.Lt(&y) {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil
}

func opGt(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	if x.Gt(&y) {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil
}

func opSlt(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	if x.Slt(&y) {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil
}

func opSgt(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	if x.Sgt(&y) {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil
}

func opEq(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	if x.Eq(&y) {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil
}

func opIszero(pc *uint64, evm *EVM) error {
	x := evm.stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil
}

func opAnd(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	x.And(x, &y)
	return nil
}

func opOr(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	x.Or(x, &y)
	return nil
}

func opXor(pc *uint64, evm *EVM) error {
	y, x := evm.stack.pop(), evm.stack.peek()
	x.Xor(x, &y)
	return nil
}

func opNot(pc *uint64, evm *EVM) error {
	x := evm.stack.peek()
	x.Not(x)
	return nil
}

func opByte(pc *uint64, evm *EVM) error {
	// Index 0 is the most significant byte; anything past 31 yields zero.
	th, val := evm.stack.pop(), evm.stack.peek()
	val.Byte(&th)
	return nil
}

func opAddress(pc *uint64, evm *EVM) error {
	evm.stack.push(new(uint256.Int).SetBytes(evm.tx.To.Bytes()))
	return nil
}

func opBalance(pc *uint64, evm *EVM) error {
	slot := evm.stack.peek()
	addr := common.Address(slot.Bytes20())
	slot.Set(evm.statedb.GetBalance(addr))
	return nil
}

func opOrigin(pc *uint64, evm *EVM) error {
	evm.stack.push(new(uint256.Int).SetBytes(evm.tx.From.Bytes()))
	return nil
}

func opCaller(pc *uint64, evm *EVM) error {
	// No nested call frames: the caller is the transaction sender.
	evm.stack.push(new(uint256.Int).SetBytes(evm.tx.From.Bytes()))
	return nil
}

func opCallValue(pc *uint64, evm *EVM) error {
	evm.stack.push(evm.tx.Value)
	return nil
}

func opCallDataLoad(pc *uint64, evm *EVM) error {
	x := evm.stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		x.SetBytes(getData(evm.tx.Data, offset, 32))
	} else {
		x.Clear()
	}
	return nil
}

func opCallDataSize(pc *uint64, evm *EVM) error {
	evm.stack.push(new(uint256.Int).SetUint64(uint64(len(evm.tx.Data))))
	return nil
}

func opCallDataCopy(pc *uint64, evm *EVM) error {
	memOffset, dataOffset, length := evm.stack.pop(), evm.stack.pop(), evm.stack.pop()

	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		// Reads that far are all zero padding anyway.
		dataOffset64 = uint64(len(evm.tx.Data))
	}
	memOffset64, err := asUint64(&memOffset)
	if err != nil {
		return err
	}
	length64, err := asUint64(&length)
	if err != nil {
		return err
	}
	// Reserve the destination first so an oversized length fails on the
	// memory ceiling before the padded copy is built.
	if err := evm.memory.require(memOffset64, length64); err != nil {
		return err
	}
	return evm.memory.Set(memOffset64, getData(evm.tx.Data, dataOffset64, length64))
}

func opGasPrice(pc *uint64, evm *EVM) error {
	evm.stack.push(evm.tx.GasPrice)
	return nil
}

func opBlockhash(pc *uint64, evm *EVM) error {
	num := evm.stack.peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow {
		num.Clear()
		return nil
	}
	// Only the 256 most recent block hashes are visible.
	var upper, lower uint64
	upper = evm.block.BlockNumber.Uint64()
	if upper < 257 {
		lower = 0
	} else {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper && evm.block.GetHash != nil {
		num.SetBytes(evm.block.GetHash(num64).Bytes())
	} else {
		num.Clear()
	}
	return nil
}

func opCoinbase(pc *uint64, evm *EVM) error {
	evm.stack.push(new(uint256.Int).SetBytes(evm.block.Coinbase.Bytes()))
	return nil
}

func opTimestamp(pc *uint64, evm *EVM) error {
	evm.stack.push(new(uint256.Int).SetUint64(evm.block.Time))
	return nil
}

func opNumber(pc *uint64, evm *EVM) error {
	v, _ := uint256.FromBig(evm.block.BlockNumber)
	evm.stack.push(v)
	return nil
}

func opGasLimit(pc *uint64, evm *EVM) error {
	evm.stack.push(new(uint256.Int).SetUint64(evm.block.GasLimit))
	return nil
}

func opChainID(pc *uint64, evm *EVM) error {
	v, _ := uint256.FromBig(evm.block.ChainID)
	evm.stack.push(v)
	return nil
}

func opBaseFee(pc *uint64, evm *EVM) error {
	v, _ := uint256.FromBig(evm.block.BaseFee)
	evm.stack.push(v)
	return nil
}

func opPop(pc *uint64, evm *EVM) error {
	evm.stack.pop()
	return nil
}

func opMload(pc *uint64, evm *EVM) error {
	v := evm.stack.peek()
	offset, err := asUint64(v)
	if err != nil {
		return err
	}
	word, err := evm.memory.GetWord(offset)
	if err != nil {
		return err
	}
	v.Set(&word)
	return nil
}

func opMstore(pc *uint64, evm *EVM) error {
	mStart, val := evm.stack.pop(), evm.stack.pop()
	offset, err := asUint64(&mStart)
	if err != nil {
		return err
	}
	return evm.memory.SetWord(offset, &val)
}

func opMstore8(pc *uint64, evm *EVM) error {
	off, val := evm.stack.pop(), evm.stack.pop()
	offset, err := asUint64(&off)
	if err != nil {
		return err
	}
	return evm.memory.SetByte(offset, byte(val.Uint64()))
}

func opMsize(pc *uint64, evm *EVM) error {
	evm.stack.push(new(uint256.Int).SetUint64(uint64(evm.memory.Len())))
	return nil
}

func opMcopy(pc *uint64, evm *EVM) error {
	dst, src, length := evm.stack.pop(), evm.stack.pop(), evm.stack.pop()
	dst64, err := asUint64(&dst)
	if err != nil {
		return err
	}
	src64, err := asUint64(&src)
	if err != nil {
		return err
	}
	length64, err := asUint64(&length)
	if err != nil {
		return err
	}
	return evm.memory.Copy(dst64, src64, length64)
}

func opSload(pc *uint64, evm *EVM) error {
	// Storage is keyed by the executing account, i.e. the recipient.
	loc := evm.stack.peek()
	val := evm.statedb.GetState(evm.tx.To, common.Hash(loc.Bytes32()))
	loc.SetBytes(val.Bytes())
	return nil
}

func opSstore(pc *uint64, evm *EVM) error {
	loc, val := evm.stack.pop(), evm.stack.pop()
	evm.statedb.SetState(evm.tx.To, common.Hash(loc.Bytes32()), common.Hash(val.Bytes32()))
	return nil
}

func opJump(pc *uint64, evm *EVM) error {
	pos := evm.stack.pop()
	if !evm.validJumpdest(&pos) {
		return ErrInvalidJump
	}
	*pc = pos.Uint64() - 1 // pc will be increased by the interpreter loop
	return nil
}

func opJumpi(pc *uint64, evm *EVM) error {
	pos, cond := evm.stack.pop(), evm.stack.pop()
	if !cond.IsZero() {
		if !evm.validJumpdest(&pos) {
			return ErrInvalidJump
		}
		*pc = pos.Uint64() - 1 // pc will be increased by the interpreter loop
	}
	return nil
}

func opJumpdest(pc *uint64, evm *EVM) error {
	return nil
}

func opPc(pc *uint64, evm *EVM) error {
	evm.stack.push(new(uint256.Int).SetUint64(*pc))
	return nil
}

func opGas(pc *uint64, evm *EVM) error {
	evm.stack.push(new(uint256.Int).SetUint64(evm.gas))
	return nil
}

func opPush0(pc *uint64, evm *EVM) error {
	evm.stack.push(new(uint256.Int))
	return nil
}

func opStop(pc *uint64, evm *EVM) error {
	return errStopToken
}

func opReturn(pc *uint64, evm *EVM) error {
	offset, size := evm.stack.pop(), evm.stack.pop()
	offset64, err := asUint64(&offset)
	if err != nil {
		return err
	}
	size64, err := asUint64(&size)
	if err != nil {
		return err
	}
	ret, err := evm.memory.GetCopy(offset64, size64)
	if err != nil {
		return err
	}
	evm.returnData = ret
	return errStopToken
}

func opRevert(pc *uint64, evm *EVM) error {
	offset, size := evm.stack.pop(), evm.stack.pop()
	offset64, err := asUint64(&offset)
	if err != nil {
		return err
	}
	size64, err := asUint64(&size)
	if err != nil {
		return err
	}
	ret, err := evm.memory.GetCopy(offset64, size64)
	if err != nil {
		return err
	}
	evm.returnData = ret
	return ErrExecutionReverted
}

// makePush reads size immediate bytes following the opcode from the code
// region, left pads them to a full word and pushes the result. Reads
// truncated by the end of code are zero padded on the right. The skipped
// immediates are accounted to the program counter here.
func makePush(size uint64) executionFunc {
	return func(pc *uint64, evm *EVM) error {
		start := *pc + 1
		end := start + size
		if end > evm.codeSize {
			end = evm.codeSize
		}
		var slice []byte
		if start < evm.codeSize {
			slice = evm.memory.Data()[start:end]
		}
		evm.stack.push(new(uint256.Int).SetBytes(common.RightPadBytes(slice, int(size))))
		*pc += size
		return nil
	}
}

// makeDup duplicates the n'th stack item on top of the stack.
func makeDup(n int) executionFunc {
	return func(pc *uint64, evm *EVM) error {
		evm.stack.dup(n)
		return nil
	}
}

// makeSwap swaps the top of the stack with the n+1'th item.
func makeSwap(size int) executionFunc {
	// switch n + 1 otherwise n would be swapped with n
	size++
	return func(pc *uint64, evm *EVM) error {
		evm.stack.swap(size)
		return nil
	}
}

// makeUndefined traps bytes with no assigned instruction.
func makeUndefined(op OpCode) executionFunc {
	return func(pc *uint64, evm *EVM) error {
		return &ErrInvalidOpCode{opcode: op}
	}
}
