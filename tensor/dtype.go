// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tensor

import (
	"fmt"
)

// Type codes follow the DLPack convention.
const (
	KindInt    uint8 = 0
	KindUInt   uint8 = 1
	KindFloat  uint8 = 2
	KindHandle uint8 = 3
	KindBFloat uint8 = 4
)

// DataType describes the element type of a tensor as a
// {code, bits, lanes} triple. The triple is exactly four bytes on the
// wire: code and bits are single bytes, lanes is a 16-bit count.
type DataType struct {
	Code  uint8
	Bits  uint8
	Lanes uint16
}

// Common scalar types.
var (
	Int32   = DataType{Code: KindInt, Bits: 32, Lanes: 1}
	Int64   = DataType{Code: KindInt, Bits: 64, Lanes: 1}
	UInt8   = DataType{Code: KindUInt, Bits: 8, Lanes: 1}
	Float32 = DataType{Code: KindFloat, Bits: 32, Lanes: 1}
	Float64 = DataType{Code: KindFloat, Bits: 64, Lanes: 1}
	Bool    = DataType{Code: KindUInt, Bits: 1, Lanes: 1}
)

// String renders the canonical type name, e.g. "float32" or
// "int16x4" for a 4-lane vector type.
func (t DataType) String() string {
	if t.Code == KindUInt && t.Bits == 1 && t.Lanes == 1 {
		return "bool"
	}
	var base string
	switch t.Code {
	case KindInt:
		base = fmt.Sprintf("int%d", t.Bits)
	case KindUInt:
		base = fmt.Sprintf("uint%d", t.Bits)
	case KindFloat:
		base = fmt.Sprintf("float%d", t.Bits)
	case KindHandle:
		base = "handle"
	case KindBFloat:
		base = fmt.Sprintf("bfloat%d", t.Bits)
	default:
		base = fmt.Sprintf("unknown(%d)%d", t.Code, t.Bits)
	}
	if t.Lanes != 1 {
		return fmt.Sprintf("%sx%d", base, t.Lanes)
	}
	return base
}

// ElemBytes returns the packed size of one element, rounding bit
// widths up to whole bytes.
func (t DataType) ElemBytes() int64 {
	bits := int64(t.Bits) * int64(t.Lanes)
	return (bits + 7) / 8
}
