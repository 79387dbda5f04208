// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relaxvm

import (
	"fmt"
	"os"
	"strings"

	log "github.com/inconshreveable/log15"

	"github.com/relaxml/relaxvm/wire"
)

const (
	Name = "relaxvm"

	// BytecodeMagic is the magic number of a serialized executable.
	BytecodeMagic = uint64(0xD225DE2F4214151D)

	// BytecodeVersion is the version string written after the magic.
	// Loading any other version fails.
	BytecodeVersion = "0.1.0"
)

// streamCheck converts a failed stream operation into the canonical
// section-named format error.
func streamCheck(ok bool, section string) error {
	if ok {
		return nil
	}
	return fmt.Errorf("Invalid VM file format in the %s section", section)
}

// FuncKind discriminates entries of the function table.
type FuncKind int32

const (
	// PackedFunc is an externally supplied closure.
	PackedFunc FuncKind = 0
	// VMFunc owns a bytecode range in the instruction buffer.
	VMFunc FuncKind = 1
	// VMTIRFunc delegates to a lower-IR callable.
	VMTIRFunc FuncKind = 2
)

// FuncInfo declares one callable of the executable.
type FuncInfo struct {
	Kind FuncKind
	Name string

	// [StartInstr, EndInstr) indexes instr_offset. Both are zero for
	// non-VM functions.
	StartInstr int64
	EndInstr   int64

	NumArgs          int64
	RegisterFileSize int64
	ParamNames       []string
}

func (f *FuncInfo) save(s *wire.Stream) {
	s.PackInt32(int32(f.Kind))
	s.PackStr(f.Name)
	s.PackInt64(f.StartInstr)
	s.PackInt64(f.EndInstr)
	s.PackInt64(f.NumArgs)
	s.PackInt64(f.RegisterFileSize)
	s.PackStrSlice(f.ParamNames)
}

func (f *FuncInfo) load(s *wire.Stream) bool {
	f.Kind = FuncKind(s.UnpackInt32())
	f.Name = s.UnpackStr()
	f.StartInstr = s.UnpackInt64()
	f.EndInstr = s.UnpackInt64()
	f.NumArgs = s.UnpackInt64()
	f.RegisterFileSize = s.UnpackInt64()
	f.ParamNames = s.UnpackStrSlice()
	return !s.Errored()
}

// Executable is a serialized program for the register VM: a typed
// constant pool, a function table and a flat instruction stream.
// A producer populates it once; after save or load it is immutable
// apart from SetInstructionData patching.
type Executable struct {
	Constants   []Constant
	FuncTable   []FuncInfo
	InstrOffset []int64
	InstrData   []ExecWord

	// funcMap indexes FuncTable by name. It is rebuilt from the
	// table on load, never serialized.
	funcMap map[string]int
}

// HasFunction returns true iff [name] is declared in the function
// table.
func (ex *Executable) HasFunction(name string) bool {
	_, ok := ex.funcMap[name]
	return ok
}

// FuncIndex returns the function-table index of [name].
func (ex *Executable) FuncIndex(name string) (int, bool) {
	idx, ok := ex.funcMap[name]
	return idx, ok
}

// buildFuncMap reindexes the function table by name.
func (ex *Executable) buildFuncMap() {
	ex.funcMap = make(map[string]int, len(ex.FuncTable))
	for i, f := range ex.FuncTable {
		ex.funcMap[f.Name] = i
	}
}

// GetInstruction decodes instruction [i] from the flat buffer.
// Decoding an unknown opcode panics.
func (ex *Executable) GetInstruction(i int64) Instruction {
	offset := ex.InstrOffset[i]
	op := Opcode(ex.InstrData[offset])
	switch op {
	case OpCall:
		dst := ex.InstrData[offset+1]
		funcIdx := ex.InstrData[offset+2]
		numArgs := ex.InstrData[offset+3]
		args := make([]Arg, numArgs)
		for j := range args {
			args[j] = ArgFromWord(ex.InstrData[offset+4+int64(j)])
		}
		return Call(funcIdx, args, dst)
	case OpRet:
		return Ret(ex.InstrData[offset+1])
	case OpGoto:
		return Goto(ex.InstrData[offset+1])
	case OpIf:
		return If(ex.InstrData[offset+1], ex.InstrData[offset+2])
	default:
		panic(fmt.Sprintf("should never hit this case: %d", op))
	}
}

// SetInstructionData overwrites word [j] of instruction [i].
func (ex *Executable) SetInstructionData(i, j int64, val ExecWord) {
	if i >= int64(len(ex.InstrOffset)) {
		panic(fmt.Sprintf("instruction index %d out of range [0, %d)", i, len(ex.InstrOffset)))
	}
	idx := ex.InstrOffset[i] + j
	if idx >= int64(len(ex.InstrData)) {
		panic(fmt.Sprintf("instruction data index %d out of range [0, %d)", idx, len(ex.InstrData)))
	}
	ex.InstrData[idx] = val
}

// Stats returns a single-line-per-section summary of the executable.
func (ex *Executable) Stats() string {
	var b strings.Builder
	b.WriteString("Relax VM executable statistics:\n")

	consts := make([]string, len(ex.Constants))
	for i, c := range ex.Constants {
		consts[i] = c.String()
	}
	fmt.Fprintf(&b, "  Constant pool (# %d): [%s]\n", len(ex.Constants), strings.Join(consts, ", "))

	names := make([]string, len(ex.FuncTable))
	for i, f := range ex.FuncTable {
		names[i] = f.Name
	}
	fmt.Fprintf(&b, "  Globals (#%d): [%s]\n", len(ex.FuncTable), strings.Join(names, ", "))
	return b.String()
}

// saveHeader writes the magic and the version string.
func saveHeader(s *wire.Stream) {
	s.PackLong(BytecodeMagic)
	s.PackStr(BytecodeVersion)
}

// loadHeader validates the magic and the version string.
func loadHeader(s *wire.Stream) error {
	if magic := s.UnpackLong(); s.Errored() || magic != BytecodeMagic {
		return streamCheck(false, "header")
	}
	if version := s.UnpackStr(); s.Errored() || version != BytecodeVersion {
		return streamCheck(false, "version")
	}
	return nil
}

func (ex *Executable) saveGlobalSection(s *wire.Stream) {
	s.PackLong(uint64(len(ex.FuncTable)))
	for i := range ex.FuncTable {
		ex.FuncTable[i].save(s)
	}
}

func (ex *Executable) loadGlobalSection(s *wire.Stream) error {
	size := s.UnpackLong()
	if s.Errored() || !checkCount(s, size) {
		return streamCheck(false, "Global Section")
	}
	ex.FuncTable = make([]FuncInfo, size)
	for i := range ex.FuncTable {
		if !ex.FuncTable[i].load(s) {
			return streamCheck(false, "Global Section")
		}
	}
	ex.buildFuncMap()
	return nil
}

func (ex *Executable) saveConstantSection(s *wire.Stream) error {
	s.PackLong(uint64(len(ex.Constants)))
	for _, c := range ex.Constants {
		if err := c.save(s); err != nil {
			return err
		}
	}
	return s.Err
}

func (ex *Executable) loadConstantSection(s *wire.Stream) error {
	size := s.UnpackLong()
	if s.Errored() || !checkCount(s, size) {
		return streamCheck(false, "constant")
	}
	ex.Constants = make([]Constant, 0, size)
	for i := uint64(0); i < size; i++ {
		c, err := loadConstant(s)
		if err != nil {
			return err
		}
		ex.Constants = append(ex.Constants, c)
	}
	return nil
}

func (ex *Executable) saveCodeSection(s *wire.Stream) {
	s.PackInt64Slice(ex.InstrOffset)
	s.PackInt64Slice(ex.InstrData)
}

func (ex *Executable) loadCodeSection(s *wire.Stream) error {
	ex.InstrOffset = s.UnpackInt64Slice()
	if s.Errored() {
		return streamCheck(false, "instr offset")
	}
	ex.InstrData = s.UnpackInt64Slice()
	if s.Errored() {
		return streamCheck(false, "instr data")
	}
	return nil
}

// SaveToBinary serializes the executable as a single length-prefixed
// string so the image can be embedded in a larger module blob.
func (ex *Executable) SaveToBinary() ([]byte, error) {
	inner := wire.NewStream(nil)
	saveHeader(inner)
	ex.saveGlobalSection(inner)
	if err := ex.saveConstantSection(inner); err != nil {
		return nil, err
	}
	ex.saveCodeSection(inner)
	if inner.Errored() {
		return nil, inner.Err
	}

	outer := wire.NewStream(nil)
	outer.PackBytes(inner.Bytes)
	if outer.Errored() {
		return nil, outer.Err
	}
	return outer.Bytes, nil
}

// LoadFromBinary is the strict reverse of SaveToBinary.
func LoadFromBinary(data []byte) (*Executable, error) {
	outer := wire.NewStream(data)
	code := outer.UnpackBytes()
	if outer.Errored() {
		return nil, streamCheck(false, "header")
	}

	s := wire.NewStream(code)
	ex := &Executable{}
	if err := loadHeader(s); err != nil {
		return nil, err
	}
	if err := ex.loadGlobalSection(s); err != nil {
		return nil, err
	}
	if err := ex.loadConstantSection(s); err != nil {
		return nil, err
	}
	if err := ex.loadCodeSection(s); err != nil {
		return nil, err
	}
	return ex, nil
}

// SaveToFile writes the serialized executable to [path]. The
// [format] argument is advisory and currently unused.
func (ex *Executable) SaveToFile(path string, format string) error {
	data, err := ex.SaveToBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFromFile reads an executable written by SaveToFile.
func LoadFromFile(path string) (*Executable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ex, err := LoadFromBinary(data)
	if err != nil {
		log.Error("failed to load executable", "path", path, "error", err)
		return nil, err
	}
	log.Debug("loaded executable", "path", path, "globals", len(ex.FuncTable), "constants", len(ex.Constants))
	return ex, nil
}
