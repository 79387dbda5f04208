// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relaxvm

import (
	"errors"
	"fmt"
)

var (
	errNoOpenFunction  = errors.New("no function is being emitted")
	errOpenFunction    = errors.New("previous function has not been ended")
	errDuplicateGlobal = errors.New("global name already declared")
)

// Builder assembles an Executable: declare globals, emit bytecode
// for VM functions, then take the finished container with Exec.
type Builder struct {
	exec    *Executable
	current int // index of the open VMFunc, or -1
}

func NewBuilder() *Builder {
	return &Builder{exec: &Executable{funcMap: map[string]int{}}, current: -1}
}

func (b *Builder) declare(f FuncInfo) error {
	if _, ok := b.exec.funcMap[f.Name]; ok {
		return fmt.Errorf("%w: %s", errDuplicateGlobal, f.Name)
	}
	b.exec.funcMap[f.Name] = len(b.exec.FuncTable)
	b.exec.FuncTable = append(b.exec.FuncTable, f)
	return nil
}

// DeclPackedFunc declares an externally supplied closure.
func (b *Builder) DeclPackedFunc(name string) error {
	return b.declare(FuncInfo{Kind: PackedFunc, Name: name})
}

// DeclVMTIRFunc declares a lowered-IR callable.
func (b *Builder) DeclVMTIRFunc(name string, numArgs int64) error {
	return b.declare(FuncInfo{Kind: VMTIRFunc, Name: name, NumArgs: numArgs})
}

// Function begins emitting a VM function. Instructions emitted until
// EndFunction belong to it.
func (b *Builder) Function(name string, paramNames ...string) error {
	if b.current >= 0 {
		return errOpenFunction
	}
	f := FuncInfo{
		Kind:       VMFunc,
		Name:       name,
		StartInstr: int64(len(b.exec.InstrOffset)),
		NumArgs:    int64(len(paramNames)),
		ParamNames: paramNames,
	}
	if err := b.declare(f); err != nil {
		return err
	}
	b.current = len(b.exec.FuncTable) - 1
	return nil
}

// EndFunction closes the open function and records its register file
// size.
func (b *Builder) EndFunction(registerFileSize int64) error {
	if b.current < 0 {
		return errNoOpenFunction
	}
	f := &b.exec.FuncTable[b.current]
	f.EndInstr = int64(len(b.exec.InstrOffset))
	f.RegisterFileSize = registerFileSize
	b.current = -1
	return nil
}

func (b *Builder) emit(instr Instruction) error {
	if b.current < 0 {
		return errNoOpenFunction
	}
	b.exec.InstrOffset = append(b.exec.InstrOffset, int64(len(b.exec.InstrData)))
	b.exec.InstrData = append(b.exec.InstrData, instr.Words()...)
	return nil
}

// EmitCall emits a call to the named global.
func (b *Builder) EmitCall(name string, args []Arg, dst RegName) error {
	idx, ok := b.exec.funcMap[name]
	if !ok {
		return fmt.Errorf("call to undeclared global %q", name)
	}
	return b.emit(Call(int64(idx), args, dst))
}

func (b *Builder) EmitRet(result RegName) error { return b.emit(Ret(result)) }

func (b *Builder) EmitGoto(pcOffset ExecWord) error { return b.emit(Goto(pcOffset)) }

func (b *Builder) EmitIf(cond RegName, falseOffset ExecWord) error {
	return b.emit(If(cond, falseOffset))
}

// Constant appends [c] to the pool and returns its index.
func (b *Builder) Constant(c Constant) int64 {
	b.exec.Constants = append(b.exec.Constants, c)
	return int64(len(b.exec.Constants) - 1)
}

// Exec returns the assembled executable.
func (b *Builder) Exec() (*Executable, error) {
	if b.current >= 0 {
		return nil, errOpenFunction
	}
	return b.exec, nil
}
