// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relaxvm

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaxml/relaxvm/tensor"
)

// newMainExec builds an executable with one VM function main calling
// a packed function: [call f0 in: %0, i3 dst: %1; goto 1; ret %1].
func newMainExec(t *testing.T) *Executable {
	b := NewBuilder()
	assert.NoError(t, b.DeclPackedFunc("f0"))
	assert.NoError(t, b.Function("main", "x"))
	assert.NoError(t, b.EmitCall("f0", []Arg{RegArg(0), ImmArg(3)}, 1))
	assert.NoError(t, b.EmitGoto(1))
	assert.NoError(t, b.EmitRet(1))
	assert.NoError(t, b.EndFunction(2))
	exec, err := b.Exec()
	assert.NoError(t, err)
	return exec
}

func TestExecutableAsText(t *testing.T) {
	assert := assert.New(t)

	exec := newMainExec(t)
	text := exec.AsText()
	assert.Contains(text, "@main:")
	assert.Contains(text, "call")
	assert.Contains(text, "ret %1")
	assert.Contains(text, "goto 1")
	assert.Contains(text, "@f0 packed_func;")
}

func TestExecutableRoundTrip(t *testing.T) {
	assert := assert.New(t)

	exec := newMainExec(t)
	exec.Constants = append(exec.Constants,
		IntConstant(7),
		StringConstant("abc"),
		ShapeConstant(2, 3),
		FloatConstant(1.5),
		DataTypeConstant(tensor.Float32),
	)

	data, err := exec.SaveToBinary()
	assert.NoError(err)

	loaded, err := LoadFromBinary(data)
	assert.NoError(err)

	// round trip is bit exact
	data2, err := loaded.SaveToBinary()
	assert.NoError(err)
	assert.Equal(data, data2)

	// the function map is reconstructed from the table
	assert.True(loaded.HasFunction("main"))
	assert.True(loaded.HasFunction("f0"))
	assert.False(loaded.HasFunction("missing"))
	idx, ok := loaded.FuncIndex("main")
	assert.True(ok)
	assert.Equal(VMFunc, loaded.FuncTable[idx].Kind)
	assert.Equal([]string{"x"}, loaded.FuncTable[idx].ParamNames)
	assert.Equal(int64(2), loaded.FuncTable[idx].RegisterFileSize)

	assert.Equal(exec.InstrOffset, loaded.InstrOffset)
	assert.Equal(exec.InstrData, loaded.InstrData)
	assert.Equal(exec.Constants, loaded.Constants)

	// disassembly is a pure function of the container
	assert.Equal(exec.AsText(), loaded.AsText())
	assert.Equal(exec.AsPython(), loaded.AsPython())
}

func TestNDArrayConstantRoundTrip(t *testing.T) {
	assert := assert.New(t)

	nd := tensor.New(tensor.Float32, 2, 3)
	for i := range nd.Data {
		nd.Data[i] = byte(i)
	}
	exec := &Executable{Constants: []Constant{NDArrayConstant(nd)}}
	exec.buildFuncMap()

	data, err := exec.SaveToBinary()
	assert.NoError(err)
	loaded, err := LoadFromBinary(data)
	assert.NoError(err)

	assert.Len(loaded.Constants, 1)
	assert.Equal(ConstNDArray, loaded.Constants[0].Kind)
	assert.Equal(nd.Shape, loaded.Constants[0].NDArray.Shape)
	assert.Equal(nd.Data, loaded.Constants[0].NDArray.Data)
}

func TestExecutableStats(t *testing.T) {
	assert := assert.New(t)

	exec := &Executable{Constants: []Constant{
		IntConstant(7),
		StringConstant("abc"),
		ShapeConstant(2, 3),
		DataTypeConstant(tensor.Float32),
	}}
	exec.buildFuncMap()

	stats := exec.Stats()
	assert.Contains(stats, "Constant pool (# 4):")
	assert.Contains(stats, "Globals (#0):")
	assert.Contains(stats, "7, \"abc\", shapetuple[2, 3], float32")
}

func TestLoadRejectsBadHeader(t *testing.T) {
	assert := assert.New(t)

	exec := newMainExec(t)
	data, err := exec.SaveToBinary()
	assert.NoError(err)

	// the magic starts right after the outer length prefix
	corrupt := append([]byte{}, data...)
	corrupt[8] ^= 0xff
	_, err = LoadFromBinary(corrupt)
	assert.EqualError(err, "Invalid VM file format in the header section")

	// the version characters follow the magic and their length
	corrupt = append([]byte{}, data...)
	corrupt[24] ^= 0xff
	_, err = LoadFromBinary(corrupt)
	assert.EqualError(err, "Invalid VM file format in the version section")
}

func TestLoadRejectsTruncated(t *testing.T) {
	assert := assert.New(t)

	exec := newMainExec(t)
	data, err := exec.SaveToBinary()
	assert.NoError(err)

	for _, size := range []int{0, 4, 8, 20, len(data) - 1} {
		_, err := LoadFromBinary(data[:size])
		assert.Error(err, "truncated to %d bytes", size)
	}
}

func TestLoadRejectsUnknownConstantTag(t *testing.T) {
	assert := assert.New(t)

	exec := &Executable{Constants: []Constant{IntConstant(7)}}
	exec.buildFuncMap()
	data, err := exec.SaveToBinary()
	assert.NoError(err)

	// the constant tag follows the outer prefix, header, empty
	// global section and the pool count
	tagOffset := 8 + (8 + 8 + len(BytecodeVersion)) + 8 + 8
	corrupt := append([]byte{}, data...)
	corrupt[tagOffset] = 0x63
	_, err = LoadFromBinary(corrupt)
	assert.Error(err)
	assert.Contains(err.Error(), "Constant pool can only contain")
}

func TestGetInstruction(t *testing.T) {
	assert := assert.New(t)

	exec := newMainExec(t)

	call := exec.GetInstruction(0)
	assert.Equal(OpCall, call.Op)
	assert.Equal(int64(0), call.FuncIdx)
	assert.Equal(RegName(1), call.Dst)
	assert.Len(call.Args, 2)
	assert.Equal(ArgRegister, call.Args[0].Kind())
	assert.Equal(int64(0), call.Args[0].Value())
	assert.Equal(ArgImmediate, call.Args[1].Kind())
	assert.Equal(int64(3), call.Args[1].Value())

	gotoInstr := exec.GetInstruction(1)
	assert.Equal(OpGoto, gotoInstr.Op)
	assert.Equal(int64(1), gotoInstr.PcOffset)

	ret := exec.GetInstruction(2)
	assert.Equal(OpRet, ret.Op)
	assert.Equal(RegName(1), ret.Result)
}

func TestSetInstructionData(t *testing.T) {
	assert := assert.New(t)

	exec := newMainExec(t)

	// patch the goto offset
	exec.SetInstructionData(1, 1, -1)
	assert.Equal(int64(-1), exec.GetInstruction(1).PcOffset)

	assert.Panics(func() { exec.SetInstructionData(99, 0, 0) })
	assert.Panics(func() { exec.SetInstructionData(2, 99, 0) })
}

func TestAsPython(t *testing.T) {
	assert := assert.New(t)

	exec := newMainExec(t)
	py := exec.AsPython()
	assert.Contains(py, "ib = rx.Builder()\n")
	assert.Contains(py, "with ib.function(\"main\", num_inputs=1):\n")
	assert.Contains(py, "ib.emit_call(\"f0\", args=[ib.r(0), ib.imm(3)], dst=ib.r(1))")
	assert.Contains(py, "ib.emit_goto(1)")
	assert.Contains(py, "ib.emit_ret(ib.r(1))")
}

func TestPackedOnlyExecutable(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	assert.NoError(b.DeclPackedFunc("ext_add"))
	assert.NoError(b.DeclPackedFunc("ext_mul"))
	exec, err := b.Exec()
	assert.NoError(err)

	text := exec.AsText()
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line == "" {
			continue
		}
		assert.True(strings.HasSuffix(line, "packed_func;"), "line %q", line)
	}

	// only the builder preamble is emitted for bytecode-free programs
	assert.Equal("ib = rx.Builder()\n", exec.AsPython())
}

func TestVMTIRFuncDeclaration(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	assert.NoError(b.DeclVMTIRFunc("shape_func", 2))
	exec, err := b.Exec()
	assert.NoError(err)
	assert.Contains(exec.AsText(), "@shape_func num_inputs=2 vm_tir_func;")
	assert.Equal("ib = rx.Builder()\n", exec.AsPython())
}

func TestSaveToFileLoadFromFile(t *testing.T) {
	assert := assert.New(t)

	exec := newMainExec(t)
	path := filepath.Join(t.TempDir(), "program.vmexec")
	assert.NoError(exec.SaveToFile(path, ""))

	loaded, err := LoadFromFile(path)
	assert.NoError(err)
	assert.True(loaded.HasFunction("main"))

	data, err := exec.SaveToBinary()
	assert.NoError(err)
	data2, err := loaded.SaveToBinary()
	assert.NoError(err)
	assert.Equal(data, data2)
}

func TestBuilderRejectsMisuse(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder()
	assert.Error(b.EmitRet(0))
	assert.NoError(b.Function("main"))
	assert.Error(b.Function("other"))
	assert.Error(b.EmitCall("missing", nil, VoidRegister))
	_, err := b.Exec()
	assert.Error(err)
	assert.NoError(b.EndFunction(0))
	assert.Error(b.DeclPackedFunc("main"))
}
