// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relaxvm

import (
	"fmt"
	"strings"
)

// RegNameToStr renders a register id for the text dialect.
func RegNameToStr(reg RegName) string {
	switch reg {
	case VoidRegister:
		return "%void"
	case VMRegister:
		return "%vm"
	default:
		return fmt.Sprintf("%%%d", reg)
	}
}

func (ex *Executable) funcName(idx ExecWord) string {
	if idx >= 0 && idx < int64(len(ex.FuncTable)) {
		return ex.FuncTable[idx].Name
	}
	return fmt.Sprintf("unknown_func_index(%d)", idx)
}

func (ex *Executable) argToStr(arg Arg) string {
	switch arg.Kind() {
	case ArgRegister:
		return RegNameToStr(arg.Value())
	case ArgImmediate:
		return fmt.Sprintf("i%d", arg.Value())
	case ArgConstIdx:
		return fmt.Sprintf("c[%d]", arg.Value())
	case ArgFuncIdx:
		return fmt.Sprintf("f[%s]", ex.funcName(arg.Value()))
	default:
		panic(fmt.Sprintf("wrong instruction kind: %d", arg.Kind()))
	}
}

func (ex *Executable) argsToStr(args []Arg) string {
	strs := make([]string, len(args))
	for i, arg := range args {
		strs[i] = ex.argToStr(arg)
	}
	return strings.Join(strs, ", ")
}

// AsText renders the disassembly dialect: one declaration line for
// packed and lowered functions, a labeled instruction listing for VM
// functions.
func (ex *Executable) AsText() string {
	var b strings.Builder
	for _, gfunc := range ex.FuncTable {
		switch gfunc.Kind {
		case PackedFunc:
			fmt.Fprintf(&b, "@%s packed_func;\n\n", gfunc.Name)
			continue
		case VMTIRFunc:
			fmt.Fprintf(&b, "@%s num_inputs=%d vm_tir_func;\n\n", gfunc.Name, gfunc.NumArgs)
			continue
		case VMFunc:
		default:
			panic(fmt.Sprintf("unknown function kind: %d", gfunc.Kind))
		}
		fmt.Fprintf(&b, "@%s:\n", gfunc.Name)
		for idx := gfunc.StartInstr; idx < gfunc.EndInstr; idx++ {
			instr := ex.GetInstruction(idx)
			switch instr.Op {
			case OpCall:
				fmt.Fprintf(&b, "  %-6s%-16s in: %-12s dst: %s\n",
					"call", ex.funcName(instr.FuncIdx), ex.argsToStr(instr.Args), RegNameToStr(instr.Dst))
			case OpRet:
				fmt.Fprintf(&b, "  ret %s\n", RegNameToStr(instr.Result))
			case OpGoto:
				fmt.Fprintf(&b, "  goto %d\n", instr.PcOffset)
			case OpIf:
				fmt.Fprintf(&b, "  If %s, %d\n", RegNameToStr(instr.Cond), instr.FalseOffset)
			default:
				panic(fmt.Sprintf("should never hit this case: %d", instr.Op))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (ex *Executable) pyFuncName(idx ExecWord) string {
	if idx >= 0 && idx < int64(len(ex.FuncTable)) {
		return fmt.Sprintf("%q", ex.FuncTable[idx].Name)
	}
	return fmt.Sprintf("ib.unknown_func_index(%d)", idx)
}

func (ex *Executable) argToPyStr(arg Arg) string {
	switch arg.Kind() {
	case ArgRegister:
		if arg.Value() == VMRegister {
			return "ib.r(vm)"
		}
		return fmt.Sprintf("ib.r(%d)", arg.Value())
	case ArgImmediate:
		return fmt.Sprintf("ib.imm(%d)", arg.Value())
	case ArgConstIdx:
		return fmt.Sprintf("ib.c(%d)", arg.Value())
	case ArgFuncIdx:
		return fmt.Sprintf("ib.f(%s)", ex.pyFuncName(arg.Value()))
	default:
		panic(fmt.Sprintf("wrong instruction kind: %d", arg.Kind()))
	}
}

// AsPython renders the same program as an imperative builder script.
// Function kinds without bytecode are skipped.
func (ex *Executable) AsPython() string {
	var b strings.Builder
	b.WriteString("ib = rx.Builder()\n")
	for _, gfunc := range ex.FuncTable {
		if gfunc.Kind != VMFunc {
			continue
		}
		fmt.Fprintf(&b, "with ib.function(%q, num_inputs=%d):\n", gfunc.Name, gfunc.NumArgs)
		for idx := gfunc.StartInstr; idx < gfunc.EndInstr; idx++ {
			instr := ex.GetInstruction(idx)
			switch instr.Op {
			case OpCall:
				args := make([]string, len(instr.Args))
				for i, arg := range instr.Args {
					args[i] = ex.argToPyStr(arg)
				}
				fmt.Fprintf(&b, "    ib.emit_call(%s, args=[%s]", ex.pyFuncName(instr.FuncIdx), strings.Join(args, ", "))
				if instr.Dst != VoidRegister {
					fmt.Fprintf(&b, ", dst=ib.r(%d)", instr.Dst)
				}
				b.WriteString(")\n")
			case OpRet:
				fmt.Fprintf(&b, "    ib.emit_ret(ib.r(%d))\n", instr.Result)
			case OpGoto:
				fmt.Fprintf(&b, "    ib.emit_goto(%d)\n", instr.PcOffset)
			case OpIf:
				fmt.Fprintf(&b, "    ib.emit_if(ib.r(%d), %d)\n", instr.Cond, instr.FalseOffset)
			default:
				panic(fmt.Sprintf("should never hit this case: %d", instr.Op))
			}
		}
	}
	return b.String()
}
