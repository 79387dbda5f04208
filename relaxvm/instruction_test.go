// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relaxvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgEncoding(t *testing.T) {
	assert := assert.New(t)

	arg := RegArg(5)
	assert.Equal(ArgRegister, arg.Kind())
	assert.Equal(int64(5), arg.Value())

	arg = ImmArg(-3)
	assert.Equal(ArgImmediate, arg.Kind())
	assert.Equal(int64(-3), arg.Value())

	arg = ConstArg(7)
	assert.Equal(ArgConstIdx, arg.Kind())
	assert.Equal(int64(7), arg.Value())

	arg = FuncArg(2)
	assert.Equal(ArgFuncIdx, arg.Kind())
	assert.Equal(int64(2), arg.Value())

	// kind and value survive a trip through a raw word
	word := ImmArg(-1000).Word()
	assert.Equal(int64(-1000), ArgFromWord(word).Value())
	assert.Equal(ArgImmediate, ArgFromWord(word).Kind())
}

func TestArgSpecialRegisters(t *testing.T) {
	assert := assert.New(t)

	// the special registers live above bit 54 and survive encoding
	arg := RegArg(VoidRegister)
	assert.Equal(ArgRegister, arg.Kind())
	assert.Equal(VoidRegister, arg.Value())

	assert.Equal("%void", RegNameToStr(VoidRegister))
	assert.Equal("%vm", RegNameToStr(VMRegister))
	assert.Equal("%3", RegNameToStr(3))
}

func TestInstructionWords(t *testing.T) {
	assert := assert.New(t)

	call := Call(1, []Arg{RegArg(0), ImmArg(3)}, 2)
	words := call.Words()
	assert.Equal(ExecWord(OpCall), words[0])
	assert.Equal(int64(2), words[1])
	assert.Equal(int64(1), words[2])
	assert.Equal(int64(2), words[3])
	assert.Len(words, 6)

	assert.Equal([]ExecWord{ExecWord(OpRet), 4}, Ret(4).Words())
	assert.Equal([]ExecWord{ExecWord(OpGoto), -2}, Goto(-2).Words())
	assert.Equal([]ExecWord{ExecWord(OpIf), 1, 3}, If(1, 3).Words())
}
