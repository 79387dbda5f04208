// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamRoundTrip(t *testing.T) {
	assert := assert.New(t)

	s := NewStream(nil)
	s.PackByte(0x7f)
	s.PackShort(0x1234)
	s.PackInt(0xdeadbeef)
	s.PackLong(0xD225DE2F4214151D)
	s.PackInt64(-42)
	s.PackFloat64(3.5)
	s.PackStr("hello")
	s.PackInt64Slice([]int64{1, -2, 3})
	s.PackStrSlice([]string{"a", "bc"})
	assert.NoError(s.Err)

	r := NewStream(s.Bytes)
	assert.Equal(byte(0x7f), r.UnpackByte())
	assert.Equal(uint16(0x1234), r.UnpackShort())
	assert.Equal(uint32(0xdeadbeef), r.UnpackInt())
	assert.Equal(uint64(0xD225DE2F4214151D), r.UnpackLong())
	assert.Equal(int64(-42), r.UnpackInt64())
	assert.Equal(3.5, r.UnpackFloat64())
	assert.Equal("hello", r.UnpackStr())
	assert.Equal([]int64{1, -2, 3}, r.UnpackInt64Slice())
	assert.Equal([]string{"a", "bc"}, r.UnpackStrSlice())
	assert.NoError(r.Err)
	assert.Equal(len(s.Bytes), r.Offset)
}

func TestStreamLittleEndian(t *testing.T) {
	assert := assert.New(t)

	s := NewStream(nil)
	s.PackInt(1)
	assert.Equal([]byte{1, 0, 0, 0}, s.Bytes)

	s = NewStream(nil)
	s.PackLong(0x0102030405060708)
	assert.Equal([]byte{8, 7, 6, 5, 4, 3, 2, 1}, s.Bytes)
}

func TestStreamErrorSticks(t *testing.T) {
	assert := assert.New(t)

	r := NewStream([]byte{1, 2})
	assert.Equal(uint32(0), r.UnpackInt())
	assert.True(r.Errored())

	// after the first failure every read is a no-op
	assert.Equal(byte(0), r.UnpackByte())
	assert.Equal("", r.UnpackStr())
	assert.True(r.Errored())
}

func TestStreamTruncatedString(t *testing.T) {
	assert := assert.New(t)

	s := NewStream(nil)
	s.PackStr("hello")
	assert.NoError(s.Err)

	r := NewStream(s.Bytes[:len(s.Bytes)-1])
	assert.Equal("", r.UnpackStr())
	assert.True(r.Errored())
}

func TestStreamHugeCountRejected(t *testing.T) {
	assert := assert.New(t)

	// a corrupt count larger than the remaining input must not drive
	// a huge allocation
	s := NewStream(nil)
	s.PackLong(1 << 60)
	r := NewStream(s.Bytes)
	assert.Nil(r.UnpackInt64Slice())
	assert.True(r.Errored())
}
