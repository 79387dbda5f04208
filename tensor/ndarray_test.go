// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaxml/relaxvm/wire"
)

func TestDataTypeString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("float32", Float32.String())
	assert.Equal("int64", Int64.String())
	assert.Equal("uint8", UInt8.String())
	assert.Equal("bool", Bool.String())
	assert.Equal("float32x4", DataType{Code: KindFloat, Bits: 32, Lanes: 4}.String())
	assert.Equal("bfloat16", DataType{Code: KindBFloat, Bits: 16, Lanes: 1}.String())
}

func TestNDArraySaveLoad(t *testing.T) {
	assert := assert.New(t)

	nd := New(Float32, 2, 3)
	for i := range nd.Data {
		nd.Data[i] = byte(i)
	}

	s := wire.NewStream(nil)
	assert.NoError(nd.Save(s))

	loaded, err := Load(wire.NewStream(s.Bytes))
	assert.NoError(err)
	assert.Equal(nd.Shape, loaded.Shape)
	assert.Equal(nd.DType, loaded.DType)
	assert.Equal(nd.Data, loaded.Data)
	assert.Equal(DeviceCPU, loaded.Device.DeviceType)
}

func TestNDArrayScalarSaveLoad(t *testing.T) {
	assert := assert.New(t)

	nd := New(Int64)
	assert.Equal(int64(1), nd.NumElements())
	assert.Equal(int64(8), nd.NumBytes())

	s := wire.NewStream(nil)
	assert.NoError(nd.Save(s))
	loaded, err := Load(wire.NewStream(s.Bytes))
	assert.NoError(err)
	assert.Len(loaded.Shape, 0)
}

func TestNDArrayBadMagic(t *testing.T) {
	assert := assert.New(t)

	nd := New(UInt8, 4)
	s := wire.NewStream(nil)
	assert.NoError(nd.Save(s))

	s.Bytes[0] ^= 0xff
	_, err := Load(wire.NewStream(s.Bytes))
	assert.ErrorIs(err, ErrBadNDArrayFormat)
}

func TestNDArrayBadRankRejected(t *testing.T) {
	assert := assert.New(t)

	nd := New(Float32, 2, 3)
	s := wire.NewStream(nil)
	assert.NoError(nd.Save(s))

	// the rank follows the magic, reserved word and device pair
	const ndimOffset = 8 + 8 + 4 + 4

	// negative via two's complement
	negative := append([]byte{}, s.Bytes...)
	copy(negative[ndimOffset:], []byte{0xff, 0xff, 0xff, 0xff})
	_, err := Load(wire.NewStream(negative))
	assert.ErrorIs(err, ErrBadNDArrayFormat)

	// far larger than the remaining input could hold
	huge := append([]byte{}, s.Bytes...)
	copy(huge[ndimOffset:], []byte{0xff, 0xff, 0xff, 0x7f})
	_, err = Load(wire.NewStream(huge))
	assert.ErrorIs(err, ErrBadNDArrayFormat)
}

func TestNDArrayNonCPURejected(t *testing.T) {
	assert := assert.New(t)

	nd := New(UInt8, 4)
	nd.Device.DeviceType = 2
	s := wire.NewStream(nil)
	assert.ErrorIs(nd.Save(s), ErrNonCPUDevice)
}

func TestNDArrayContiguity(t *testing.T) {
	assert := assert.New(t)

	nd := New(Float32, 2, 3)
	assert.True(nd.IsContiguous())

	nd.Strides = []int64{3, 1}
	assert.True(nd.IsContiguous())

	nd.Strides = []int64{1, 2}
	assert.False(nd.IsContiguous())
}
