// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// ByteLen is the number of bytes per byte...
	ByteLen = 1
	// ShortLen is the number of bytes per short
	ShortLen = 2
	// IntLen is the number of bytes per int
	IntLen = 4
	// LongLen is the number of bytes per long
	LongLen = 8
)

var (
	errBadLength = errors.New("stream has insufficient length for input")
)

// Stream packs and unpacks a byte slice in little-endian order.
// Strings and vectors are length-prefixed with a 64-bit count.
//
// The first failed operation records an error in the embedded Errs;
// every later operation is a no-op that returns the zero value, so a
// codec can run a whole section and check Errored() once at the end.
type Stream struct {
	wrappers.Errs

	Bytes  []byte
	Offset int
}

// NewStream returns a stream positioned at the start of [bytes].
// Pass nil to start an empty stream for packing.
func NewStream(bytes []byte) *Stream {
	return &Stream{Bytes: bytes}
}

// checkSpace returns true iff [bytes] more bytes can be read.
func (s *Stream) checkSpace(bytes int) bool {
	if s.Errored() {
		return false
	}
	if s.Offset+bytes > len(s.Bytes) {
		s.Add(errBadLength)
		return false
	}
	return true
}

// expand grows the buffer so that [bytes] more bytes fit at Offset.
func (s *Stream) expand(bytes int) bool {
	if s.Errored() {
		return false
	}
	for s.Offset+bytes > len(s.Bytes) {
		s.Bytes = append(s.Bytes, 0)
	}
	return true
}

func (s *Stream) PackByte(val byte) {
	if !s.expand(ByteLen) {
		return
	}
	s.Bytes[s.Offset] = val
	s.Offset += ByteLen
}

func (s *Stream) UnpackByte() byte {
	if !s.checkSpace(ByteLen) {
		return 0
	}
	val := s.Bytes[s.Offset]
	s.Offset += ByteLen
	return val
}

func (s *Stream) PackShort(val uint16) {
	if !s.expand(ShortLen) {
		return
	}
	binary.LittleEndian.PutUint16(s.Bytes[s.Offset:], val)
	s.Offset += ShortLen
}

func (s *Stream) UnpackShort() uint16 {
	if !s.checkSpace(ShortLen) {
		return 0
	}
	val := binary.LittleEndian.Uint16(s.Bytes[s.Offset:])
	s.Offset += ShortLen
	return val
}

func (s *Stream) PackInt(val uint32) {
	if !s.expand(IntLen) {
		return
	}
	binary.LittleEndian.PutUint32(s.Bytes[s.Offset:], val)
	s.Offset += IntLen
}

func (s *Stream) UnpackInt() uint32 {
	if !s.checkSpace(IntLen) {
		return 0
	}
	val := binary.LittleEndian.Uint32(s.Bytes[s.Offset:])
	s.Offset += IntLen
	return val
}

func (s *Stream) PackLong(val uint64) {
	if !s.expand(LongLen) {
		return
	}
	binary.LittleEndian.PutUint64(s.Bytes[s.Offset:], val)
	s.Offset += LongLen
}

func (s *Stream) UnpackLong() uint64 {
	if !s.checkSpace(LongLen) {
		return 0
	}
	val := binary.LittleEndian.Uint64(s.Bytes[s.Offset:])
	s.Offset += LongLen
	return val
}

func (s *Stream) PackInt32(val int32) { s.PackInt(uint32(val)) }

func (s *Stream) UnpackInt32() int32 { return int32(s.UnpackInt()) }

func (s *Stream) PackInt64(val int64) { s.PackLong(uint64(val)) }

func (s *Stream) UnpackInt64() int64 { return int64(s.UnpackLong()) }

func (s *Stream) PackFloat64(val float64) { s.PackLong(math.Float64bits(val)) }

func (s *Stream) UnpackFloat64() float64 { return math.Float64frombits(s.UnpackLong()) }

// PackFixedBytes appends [bytes] with no length prefix.
func (s *Stream) PackFixedBytes(bytes []byte) {
	if !s.expand(len(bytes)) {
		return
	}
	copy(s.Bytes[s.Offset:], bytes)
	s.Offset += len(bytes)
}

// UnpackFixedBytes reads [size] bytes with no length prefix.
func (s *Stream) UnpackFixedBytes(size int) []byte {
	if !s.checkSpace(size) {
		return nil
	}
	bytes := make([]byte, size)
	copy(bytes, s.Bytes[s.Offset:])
	s.Offset += size
	return bytes
}

// PackBytes appends a 64-bit length followed by [bytes].
func (s *Stream) PackBytes(bytes []byte) {
	s.PackLong(uint64(len(bytes)))
	s.PackFixedBytes(bytes)
}

// UnpackBytes reads a 64-bit length followed by that many bytes.
func (s *Stream) UnpackBytes() []byte {
	size := s.UnpackLong()
	if s.Errored() {
		return nil
	}
	if size > uint64(len(s.Bytes)-s.Offset) {
		s.Add(errBadLength)
		return nil
	}
	return s.UnpackFixedBytes(int(size))
}

func (s *Stream) PackStr(str string) { s.PackBytes([]byte(str)) }

func (s *Stream) UnpackStr() string { return string(s.UnpackBytes()) }

// PackInt64Slice appends a 64-bit count followed by the elements.
func (s *Stream) PackInt64Slice(vals []int64) {
	s.PackLong(uint64(len(vals)))
	for _, val := range vals {
		s.PackInt64(val)
	}
}

// UnpackInt64Slice reads a 64-bit count followed by the elements.
func (s *Stream) UnpackInt64Slice() []int64 {
	size := s.UnpackLong()
	if s.Errored() {
		return nil
	}
	if size > uint64(len(s.Bytes)-s.Offset)/LongLen {
		s.Add(errBadLength)
		return nil
	}
	vals := make([]int64, size)
	for i := range vals {
		vals[i] = s.UnpackInt64()
	}
	return vals
}

// PackStrSlice appends a 64-bit count followed by length-prefixed
// strings.
func (s *Stream) PackStrSlice(strs []string) {
	s.PackLong(uint64(len(strs)))
	for _, str := range strs {
		s.PackStr(str)
	}
}

// UnpackStrSlice reads a 64-bit count followed by length-prefixed
// strings. Every string carries at least its length prefix, which
// bounds a sane count by the remaining input.
func (s *Stream) UnpackStrSlice() []string {
	size := s.UnpackLong()
	if s.Errored() {
		return nil
	}
	if size > uint64(len(s.Bytes)-s.Offset)/LongLen {
		s.Add(errBadLength)
		return nil
	}
	strs := make([]string, size)
	for i := range strs {
		strs[i] = s.UnpackStr()
	}
	return strs
}
