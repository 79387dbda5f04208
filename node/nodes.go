// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"bytes"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/relaxml/relaxvm/tensor"
)

// Var is a free variable. Distinct variables compare equal only when
// free-variable mapping is enabled.
type Var struct {
	NameHint string
	DType    tensor.DataType
}

func (v *Var) TypeKey() string { return "relax.expr.Var" }

// GlobalVar is a by-name reference to a module-level definition.
// Cyclic references in a graph pass through GlobalVars, which are
// compared as leaves, so traversal touches each node once.
type GlobalVar struct {
	NameHint string
}

func (v *GlobalVar) TypeKey() string { return "ir.GlobalVar" }

// Op names a primitive operator.
type Op struct {
	Name string
}

func (o *Op) TypeKey() string { return "ir.Op" }

// IntImm is an integer immediate.
type IntImm struct {
	DType tensor.DataType
	Value int64
}

func (i *IntImm) TypeKey() string { return "ir.IntImm" }

// FloatImm is a floating-point immediate.
type FloatImm struct {
	DType tensor.DataType
	Value float64
}

func (f *FloatImm) TypeKey() string { return "ir.FloatImm" }

// StringImm is a string immediate.
type StringImm struct {
	Value string
}

func (s *StringImm) TypeKey() string { return "ir.StringImm" }

// Array is an ordered sequence of child objects.
type Array struct {
	Elems []Object
}

func (a *Array) TypeKey() string { return "ir.Array" }

// NewArray wraps [elems].
func NewArray(elems ...Object) *Array { return &Array{Elems: elems} }

// Call applies an operator or function to arguments.
type Call struct {
	Op   Object
	Args *Array
}

func (c *Call) TypeKey() string { return "relax.expr.Call" }

// NewCall builds a call node.
func NewCall(op Object, args ...Object) *Call {
	return &Call{Op: op, Args: NewArray(args...)}
}

// Function is a closure with parameters and a body. Functions may be
// shared between graphs and therefore participate in the remap maps.
type Function struct {
	Params *Array
	Body   Object
}

func (f *Function) TypeKey() string { return "relax.expr.Function" }

// Let binds a variable to a value inside a body.
type Let struct {
	Var   Object
	Value Object
	Body  Object
}

func (l *Let) TypeKey() string { return "relax.expr.Let" }

// OpAttrs is a bag of primitive operator attributes.
type OpAttrs struct {
	Inplace   bool
	Workspace uint64
	Layout    string
	Axis      int
	Scale     *float64
	Pad       *int64
	Extra     interface{}
}

func (a *OpAttrs) TypeKey() string { return "relax.attrs.OpAttrs" }

func varSEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	a, b := lhs.(*Var), rhs.(*Var)
	return equal.DTypeEqual("dtype", a.DType, b.DType) &&
		equal.FreeVarEqual(lhs, rhs)
}

func globalVarSEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	a, b := lhs.(*GlobalVar), rhs.(*GlobalVar)
	return equal.StrEqual("name_hint", a.NameHint, b.NameHint) &&
		equal.FreeVarEqual(lhs, rhs)
}

func opSEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	return equal.StrEqual("name", lhs.(*Op).Name, rhs.(*Op).Name)
}

func intImmSEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	a, b := lhs.(*IntImm), rhs.(*IntImm)
	return equal.DTypeEqual("dtype", a.DType, b.DType) &&
		equal.IntEqual("value", a.Value, b.Value)
}

func floatImmSEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	a, b := lhs.(*FloatImm), rhs.(*FloatImm)
	return equal.DTypeEqual("dtype", a.DType, b.DType) &&
		equal.FloatEqual("value", a.Value, b.Value)
}

func stringImmSEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	return equal.StrEqual("value", lhs.(*StringImm).Value, rhs.(*StringImm).Value)
}

func arraySEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	a, b := lhs.(*Array), rhs.(*Array)
	if !equal.IsPathTracingEnabled() {
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !equal.ObjectEqualAt(a.Elems[i], b.Elems[i], nil) {
				return false
			}
		}
		return true
	}

	paths := equal.GetCurrentObjectPaths()
	minSize := len(a.Elems)
	if len(b.Elems) < minSize {
		minSize = len(b.Elems)
	}
	for i := 0; i < minSize; i++ {
		elemPaths := PathPair(paths.LhsPath.Index(i), paths.RhsPath.Index(i))
		if !equal.ObjectEqualAt(a.Elems[i], b.Elems[i], elemPaths) {
			return false
		}
	}
	if len(a.Elems) == len(b.Elems) {
		return true
	}

	// Point at the first element the shorter side lacks. With fail
	// deferral the shared prefix is compared first, so an earlier
	// element mismatch wins the report.
	var mismatch *ObjectPathPair
	if len(a.Elems) > len(b.Elems) {
		mismatch = PathPair(paths.LhsPath.Index(minSize), paths.RhsPath.Missing())
	} else {
		mismatch = PathPair(paths.LhsPath.Missing(), paths.RhsPath.Index(minSize))
	}
	if equal.IsFailDeferralEnabled() {
		equal.DeferFail(mismatch)
		return true
	}
	return false
}

func callSEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	a, b := lhs.(*Call), rhs.(*Call)
	return equal.ObjectEqual("op", a.Op, b.Op) &&
		equal.ObjectEqual("args", a.Args, b.Args)
}

func functionSEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	a, b := lhs.(*Function), rhs.(*Function)
	equal.MarkGraphNode()
	return equal.ObjectEqual("params", a.Params, b.Params) &&
		equal.ObjectEqual("body", a.Body, b.Body)
}

func letSEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	a, b := lhs.(*Let), rhs.(*Let)
	equal.MarkGraphNode()
	return equal.DefEqual("var", a.Var, b.Var) &&
		equal.ObjectEqual("value", a.Value, b.Value) &&
		equal.ObjectEqual("body", a.Body, b.Body)
}

func opAttrsSEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	a, b := lhs.(*OpAttrs), rhs.(*OpAttrs)
	return equal.BoolEqual("inplace", a.Inplace, b.Inplace) &&
		equal.UintEqual("workspace", a.Workspace, b.Workspace) &&
		equal.StrEqual("layout", a.Layout, b.Layout) &&
		equal.EnumAttrsEqual("axis", a.Axis, b.Axis) &&
		equal.OptFloatEqual("scale", a.Scale, b.Scale) &&
		equal.OptIntEqual("pad", a.Pad, b.Pad) &&
		equal.AnyEqual("extra", a.Extra, b.Extra)
}

// NDArrayEqual compares two tensors structurally: same rank, each
// dimension equal via the reducer, same dtype and, when
// [compareData], byte-for-byte equal packed data. Non-CPU or
// non-contiguous input is a precondition violation.
func NDArrayEqual(lhs, rhs *tensor.NDArray, equal SEqualReducer, compareData bool) bool {
	if lhs == rhs {
		return true
	}
	if lhs.Device.DeviceType != tensor.DeviceCPU || rhs.Device.DeviceType != tensor.DeviceCPU {
		panic("can only compare CPU tensor")
	}
	if !lhs.IsContiguous() || !rhs.IsContiguous() {
		panic("can only compare contiguous tensor")
	}
	if len(lhs.Shape) != len(rhs.Shape) {
		return false
	}
	for i := range lhs.Shape {
		var dimPaths *ObjectPathPair
		if equal.IsPathTracingEnabled() {
			cur := equal.GetCurrentObjectPaths()
			dimPaths = PathPair(cur.LhsPath.Attr("shape").Index(i), cur.RhsPath.Attr("shape").Index(i))
		}
		if !equal.IntEqualAt(lhs.Shape[i], rhs.Shape[i], dimPaths) {
			return false
		}
	}
	if !equal.DTypeEqual("dtype", lhs.DType, rhs.DType) {
		return false
	}
	if compareData {
		return bytes.Equal(lhs.Data, rhs.Data)
	}
	return true
}

func ndarraySEqualReduce(lhs, rhs Object, equal SEqualReducer) bool {
	return NDArrayEqual(lhs.(*tensor.NDArray), rhs.(*tensor.NDArray), equal, true)
}

func init() {
	errs := wrappers.Errs{}

	errs.Add(
		RegisterSEqualReduce((&Var{}).TypeKey(), varSEqualReduce),
		RegisterSEqualReduce((&GlobalVar{}).TypeKey(), globalVarSEqualReduce),
		RegisterSEqualReduce((&Op{}).TypeKey(), opSEqualReduce),
		RegisterSEqualReduce((&IntImm{}).TypeKey(), intImmSEqualReduce),
		RegisterSEqualReduce((&FloatImm{}).TypeKey(), floatImmSEqualReduce),
		RegisterSEqualReduce((&StringImm{}).TypeKey(), stringImmSEqualReduce),
		RegisterSEqualReduce((&Array{}).TypeKey(), arraySEqualReduce),
		RegisterSEqualReduce((&Call{}).TypeKey(), callSEqualReduce),
		RegisterSEqualReduce((&Function{}).TypeKey(), functionSEqualReduce),
		RegisterSEqualReduce((&Let{}).TypeKey(), letSEqualReduce),
		RegisterSEqualReduce((&OpAttrs{}).TypeKey(), opAttrsSEqualReduce),
		RegisterSEqualReduce((&tensor.NDArray{}).TypeKey(), ndarraySEqualReduce),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}
