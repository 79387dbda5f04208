// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relaxvm

import (
	"fmt"
)

// ExecWord is the machine word of the instruction buffer. Register
// ids, immediates and pool indices all travel as ExecWords.
type ExecWord = int64

// RegName identifies a virtual register.
type RegName = int64

// Opcode tags an instruction.
type Opcode ExecWord

const (
	OpCall Opcode = 1
	OpRet  Opcode = 2
	OpGoto Opcode = 3
	OpIf   Opcode = 4
)

// Special register ids live above bit 54 so they can never collide
// with a register-file slot.
const (
	beginSpecialReg = RegName(1) << 54

	// VoidRegister marks a call without a destination.
	VoidRegister = beginSpecialReg + 0

	// VMRegister refers to the VM itself as a pseudo-register. The
	// codec and disassembler preserve it verbatim; its behavior is
	// owned by the interpreter.
	VMRegister = beginSpecialReg + 1
)

// ArgKind tags the interpretation of a call argument's value.
type ArgKind int32

const (
	ArgRegister  ArgKind = 0
	ArgImmediate ArgKind = 1
	ArgConstIdx  ArgKind = 2
	ArgFuncIdx   ArgKind = 3
)

const (
	// An argument packs its kind into the top 8 bits of the word and
	// its value into the remaining 56, sign-extended on extraction.
	argValueBits = 56
	argValueMask = ExecWord(1)<<argValueBits - 1
)

// Arg is a call argument encoded in a single ExecWord.
type Arg struct {
	data ExecWord
}

// NewArg encodes [kind] and [value] into one word.
func NewArg(kind ArgKind, value ExecWord) Arg {
	return Arg{data: ExecWord(kind)<<argValueBits | value&argValueMask}
}

// ArgFromWord reinterprets a raw instruction word as an argument.
func ArgFromWord(word ExecWord) Arg { return Arg{data: word} }

// RegArg returns a register argument.
func RegArg(reg RegName) Arg { return NewArg(ArgRegister, reg) }

// ImmArg returns an immediate argument.
func ImmArg(val int64) Arg { return NewArg(ArgImmediate, val) }

// ConstArg returns a constant-pool index argument.
func ConstArg(idx int64) Arg { return NewArg(ArgConstIdx, idx) }

// FuncArg returns a function-table index argument.
func FuncArg(idx int64) Arg { return NewArg(ArgFuncIdx, idx) }

// Kind returns the argument kind from the top 8 bits.
func (a Arg) Kind() ArgKind { return ArgKind(a.data >> argValueBits) }

// Value returns the sign-extended 56-bit payload.
func (a Arg) Value() ExecWord { return a.data << 8 >> 8 }

// Word returns the raw encoded word.
func (a Arg) Word() ExecWord { return a.data }

// Instruction is a decoded instruction. Which fields are meaningful
// depends on Op:
//
//	Call: Dst, FuncIdx, Args
//	Ret:  Result
//	Goto: PcOffset
//	If:   Cond, FalseOffset
type Instruction struct {
	Op Opcode

	Dst     RegName
	FuncIdx ExecWord
	Args    []Arg

	Result RegName

	PcOffset ExecWord

	Cond        RegName
	FalseOffset ExecWord
}

// Call returns a call instruction invoking function [funcIdx] with
// [args], storing the result in [dst].
func Call(funcIdx ExecWord, args []Arg, dst RegName) Instruction {
	return Instruction{Op: OpCall, Dst: dst, FuncIdx: funcIdx, Args: args}
}

// Ret returns a return instruction yielding [result].
func Ret(result RegName) Instruction {
	return Instruction{Op: OpRet, Result: result}
}

// Goto returns an unconditional relative jump of [pcOffset]
// instructions.
func Goto(pcOffset ExecWord) Instruction {
	return Instruction{Op: OpGoto, PcOffset: pcOffset}
}

// If returns a conditional branch: fall through when [cond] is true,
// jump [falseOffset] instructions otherwise.
func If(cond RegName, falseOffset ExecWord) Instruction {
	return Instruction{Op: OpIf, Cond: cond, FalseOffset: falseOffset}
}

// Words returns the flat-buffer encoding of the instruction.
func (i Instruction) Words() []ExecWord {
	switch i.Op {
	case OpCall:
		words := make([]ExecWord, 0, 4+len(i.Args))
		words = append(words, ExecWord(OpCall), i.Dst, i.FuncIdx, ExecWord(len(i.Args)))
		for _, arg := range i.Args {
			words = append(words, arg.Word())
		}
		return words
	case OpRet:
		return []ExecWord{ExecWord(OpRet), i.Result}
	case OpGoto:
		return []ExecWord{ExecWord(OpGoto), i.PcOffset}
	case OpIf:
		return []ExecWord{ExecWord(OpIf), i.Cond, i.FalseOffset}
	default:
		panic(fmt.Sprintf("should never hit this case: %d", i.Op))
	}
}
