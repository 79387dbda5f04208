// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relaxvm

import (
	"fmt"
	"strings"

	"github.com/relaxml/relaxvm/tensor"
	"github.com/relaxml/relaxvm/wire"
)

// ConstantKind is the on-wire type tag of a constant-pool entry.
// The numeric values are the single registry shared by save and
// load; they never change.
type ConstantKind int32

const (
	ConstNDArray  ConstantKind = 0
	ConstShape    ConstantKind = 1
	ConstString   ConstantKind = 2
	ConstInt      ConstantKind = 3
	ConstFloat    ConstantKind = 4
	ConstDataType ConstantKind = 5
)

// Constant is one entry of the executable's constant pool: a tagged
// union over the types the pool may hold.
type Constant struct {
	Kind ConstantKind

	NDArray *tensor.NDArray
	Shape   []int64
	Str     string
	Int     int64
	Float   float64
	DType   tensor.DataType
}

func NDArrayConstant(nd *tensor.NDArray) Constant {
	return Constant{Kind: ConstNDArray, NDArray: nd}
}

func ShapeConstant(dims ...int64) Constant {
	return Constant{Kind: ConstShape, Shape: dims}
}

func StringConstant(s string) Constant {
	return Constant{Kind: ConstString, Str: s}
}

func IntConstant(v int64) Constant {
	return Constant{Kind: ConstInt, Int: v}
}

func FloatConstant(v float64) Constant {
	return Constant{Kind: ConstFloat, Float: v}
}

func DataTypeConstant(t tensor.DataType) Constant {
	return Constant{Kind: ConstDataType, DType: t}
}

// String renders the constant the way Stats reports the pool.
func (c Constant) String() string {
	switch c.Kind {
	case ConstNDArray:
		if len(c.NDArray.Shape) == 0 {
			return "scalar"
		}
		dims := make([]string, len(c.NDArray.Shape))
		for i, d := range c.NDArray.Shape {
			dims[i] = fmt.Sprintf("%d", d)
		}
		return "[" + strings.Join(dims, ", ") + "]"
	case ConstShape:
		dims := make([]string, len(c.Shape))
		for i, d := range c.Shape {
			dims[i] = fmt.Sprintf("%d", d)
		}
		return "shapetuple[" + strings.Join(dims, ", ") + "]"
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("%g", c.Float)
	case ConstDataType:
		return c.DType.String()
	default:
		return fmt.Sprintf("unknown(%d)", c.Kind)
	}
}

// save writes the tag then the payload for this constant.
func (c Constant) save(s *wire.Stream) error {
	s.PackInt32(int32(c.Kind))
	switch c.Kind {
	case ConstNDArray:
		return c.NDArray.Save(s)
	case ConstShape:
		s.PackLong(uint64(len(c.Shape)))
		for _, dim := range c.Shape {
			s.PackInt64(dim)
		}
	case ConstString:
		s.PackStr(c.Str)
	case ConstInt:
		s.PackInt64(c.Int)
	case ConstFloat:
		s.PackFloat64(c.Float)
	case ConstDataType:
		s.PackByte(c.DType.Code)
		s.PackByte(c.DType.Bits)
		s.PackShort(c.DType.Lanes)
	default:
		return fmt.Errorf("unsupported constant pool kind %d", c.Kind)
	}
	return s.Err
}

// loadConstant reads the tag then the payload of one pool entry.
func loadConstant(s *wire.Stream) (Constant, error) {
	kind := ConstantKind(s.UnpackInt32())
	if s.Errored() {
		return Constant{}, streamCheck(false, "constant")
	}
	switch kind {
	case ConstNDArray:
		nd, err := tensor.Load(s)
		if err != nil {
			return Constant{}, err
		}
		return NDArrayConstant(nd), nil
	case ConstShape:
		size := s.UnpackLong()
		if !checkCount(s, size) {
			return Constant{}, streamCheck(false, "constant")
		}
		dims := make([]int64, size)
		for i := range dims {
			dims[i] = s.UnpackInt64()
		}
		return ShapeConstant(dims...), nil
	case ConstString:
		return StringConstant(s.UnpackStr()), nil
	case ConstInt:
		return IntConstant(s.UnpackInt64()), nil
	case ConstFloat:
		return FloatConstant(s.UnpackFloat64()), nil
	case ConstDataType:
		t := tensor.DataType{
			Code:  s.UnpackByte(),
			Bits:  s.UnpackByte(),
			Lanes: s.UnpackShort(),
		}
		return DataTypeConstant(t), nil
	default:
		return Constant{}, fmt.Errorf(
			"Constant pool can only contain NDArray, Shape, String, Int, Float and DataType, but got tag %d when loading the VM constant pool", kind)
	}
}

// checkCount guards a length header against the remaining input so a
// corrupt count cannot drive a huge allocation.
func checkCount(s *wire.Stream, count uint64) bool {
	return count <= uint64(len(s.Bytes)-s.Offset)
}
