// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tensor

import (
	"errors"
	"fmt"

	"github.com/relaxml/relaxvm/wire"
)

// Magic number identifying a serialized tensor blob.
const NDArrayMagic = uint64(0xDD5E40F096B4A13F)

// Device types. Only CPU tensors can be serialized or compared.
const (
	DeviceCPU int32 = 1
)

var (
	ErrBadNDArrayFormat = errors.New("invalid NDArray file format")
	ErrNonCPUDevice     = errors.New("NDArray device must be CPU")
)

// Device locates a tensor's storage.
type Device struct {
	DeviceType int32
	DeviceID   int32
}

// NDArray is an n-dimensional array with packed little-endian data.
// A nil Strides slice means the compact row-major layout.
type NDArray struct {
	Device  Device
	DType   DataType
	Shape   []int64
	Strides []int64
	Data    []byte
}

// New returns a zero-filled contiguous CPU tensor.
func New(dtype DataType, shape ...int64) *NDArray {
	nd := &NDArray{
		Device: Device{DeviceType: DeviceCPU},
		DType:  dtype,
		Shape:  shape,
	}
	nd.Data = make([]byte, nd.NumBytes())
	return nd
}

// NumElements returns the product of the shape dimensions.
func (nd *NDArray) NumElements() int64 {
	n := int64(1)
	for _, dim := range nd.Shape {
		n *= dim
	}
	return n
}

// NumBytes returns the packed size of the data region.
func (nd *NDArray) NumBytes() int64 {
	return nd.NumElements() * nd.DType.ElemBytes()
}

// IsContiguous returns true iff the tensor uses the compact
// row-major layout.
func (nd *NDArray) IsContiguous() bool {
	if nd.Strides == nil {
		return true
	}
	expected := int64(1)
	for i := len(nd.Shape) - 1; i >= 0; i-- {
		if nd.Shape[i] != 1 && nd.Strides[i] != expected {
			return false
		}
		expected *= nd.Shape[i]
	}
	return true
}

// Save writes the tensor as a self-describing blob:
// magic, reserved word, device, ndim, dtype, shape, byte size, data.
func (nd *NDArray) Save(s *wire.Stream) error {
	if nd.Device.DeviceType != DeviceCPU {
		return ErrNonCPUDevice
	}
	if !nd.IsContiguous() {
		return fmt.Errorf("can only save contiguous tensor")
	}
	s.PackLong(NDArrayMagic)
	s.PackLong(0) // reserved
	s.PackInt32(nd.Device.DeviceType)
	s.PackInt32(nd.Device.DeviceID)
	s.PackInt32(int32(len(nd.Shape)))
	s.PackByte(nd.DType.Code)
	s.PackByte(nd.DType.Bits)
	s.PackShort(nd.DType.Lanes)
	for _, dim := range nd.Shape {
		s.PackInt64(dim)
	}
	s.PackInt64(nd.NumBytes())
	s.PackFixedBytes(nd.Data)
	return s.Err
}

// Load reads a blob written by Save. Non-CPU blobs are rejected.
func Load(s *wire.Stream) (*NDArray, error) {
	if magic := s.UnpackLong(); magic != NDArrayMagic {
		if err := s.Err; err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadNDArrayFormat, err)
		}
		return nil, fmt.Errorf("%w: bad magic %#x", ErrBadNDArrayFormat, magic)
	}
	s.UnpackLong() // reserved
	nd := &NDArray{}
	nd.Device.DeviceType = s.UnpackInt32()
	nd.Device.DeviceID = s.UnpackInt32()
	ndim := s.UnpackInt32()
	nd.DType.Code = s.UnpackByte()
	nd.DType.Bits = s.UnpackByte()
	nd.DType.Lanes = s.UnpackShort()
	if s.Errored() {
		return nil, fmt.Errorf("%w: %s", ErrBadNDArrayFormat, s.Err)
	}
	if nd.Device.DeviceType != DeviceCPU {
		return nil, ErrNonCPUDevice
	}
	// a corrupt rank must not drive a panic or a huge allocation
	if ndim < 0 || int64(ndim) > int64(len(s.Bytes)-s.Offset)/wire.LongLen {
		return nil, fmt.Errorf("%w: bad rank %d", ErrBadNDArrayFormat, ndim)
	}
	nd.Shape = make([]int64, ndim)
	for i := range nd.Shape {
		nd.Shape[i] = s.UnpackInt64()
	}
	size := s.UnpackInt64()
	if s.Errored() {
		return nil, fmt.Errorf("%w: %s", ErrBadNDArrayFormat, s.Err)
	}
	if size != nd.NumBytes() {
		return nil, fmt.Errorf("%w: data size %d does not match shape", ErrBadNDArrayFormat, size)
	}
	nd.Data = s.UnpackFixedBytes(int(size))
	if s.Errored() {
		return nil, fmt.Errorf("%w: %s", ErrBadNDArrayFormat, s.Err)
	}
	return nd, nil
}

// TypeKey identifies NDArray nodes in reflective object graphs.
func (nd *NDArray) TypeKey() string { return "runtime.NDArray" }
