/*
Package evm implements the Entropy Virtual Machine core.

The evm package implements one EVM, a byte code VM. The BC (Byte Code) VM
loops over a set of bytes seeded into linear memory and executes them
according to the rules of the instruction set: fetch one opcode at the
program counter, dispatch through the jump table, mutate the evaluation
stack, memory and account storage, and advance until the run status
leaves Running.
*/
package evm
