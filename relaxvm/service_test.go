// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relaxvm

import (
	"testing"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/stretchr/testify/assert"
)

func TestService(t *testing.T) {
	assert := assert.New(t)

	service := NewService()

	// querying before a load fails
	assert.ErrorIs(service.Stats(nil, nil, &StatsReply{}), errNoExecutable)

	exec := newMainExec(t)
	data, err := exec.SaveToBinary()
	assert.NoError(err)
	encoded, err := formatting.Encode(formatting.Hex, data)
	assert.NoError(err)

	loadReply := LoadReply{}
	assert.NoError(service.Load(nil, &LoadArgs{Bytes: encoded, Encoding: formatting.Hex}, &loadReply))
	assert.Equal(2, loadReply.Globals)

	statsReply := StatsReply{}
	assert.NoError(service.Stats(nil, nil, &statsReply))
	assert.Contains(statsReply.Stats, "Globals (#2):")

	disasmReply := DisassembleReply{}
	assert.NoError(service.Disassemble(nil, &DisassembleArgs{Format: "text"}, &disasmReply))
	assert.Contains(disasmReply.Program, "@main:")

	assert.NoError(service.Disassemble(nil, &DisassembleArgs{Format: "python"}, &disasmReply))
	assert.Contains(disasmReply.Program, "ib = rx.Builder()")

	assert.Error(service.Disassemble(nil, &DisassembleArgs{Format: "wasm"}, &disasmReply))

	hasReply := HasFunctionReply{}
	assert.NoError(service.HasFunction(nil, &HasFunctionArgs{Name: "main"}, &hasReply))
	assert.True(hasReply.Found)
	assert.NoError(service.HasFunction(nil, &HasFunctionArgs{Name: "nope"}, &hasReply))
	assert.False(hasReply.Found)
}

func TestNewHandler(t *testing.T) {
	assert := assert.New(t)

	handler, err := NewHandler(NewService())
	assert.NoError(err)
	assert.NotNil(handler)
}
