// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relaxvm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/utils/formatting"

	cjson "github.com/ava-labs/avalanchego/utils/json"
)

var (
	errNoExecutable = errors.New("no executable has been loaded")
)

// Service exposes an executable over JSON-RPC: load a serialized
// image, then query stats, disassembly and declared globals.
type Service struct {
	exec *Executable
}

// NewService returns a service with no executable loaded.
func NewService() *Service { return &Service{} }

// NewHandler returns an http handler serving [service] under the
// "relaxvm" namespace.
func NewHandler(service *Service) (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(service, Name)
}

// LoadArgs are arguments for Load
type LoadArgs struct {
	Bytes    string              `json:"bytes"`
	Encoding formatting.Encoding `json:"encoding"`
}

// LoadReply is the reply from Load
type LoadReply struct {
	Globals   int `json:"globals"`
	Constants int `json:"constants"`
}

// Load decodes and loads a serialized executable
func (s *Service) Load(_ *http.Request, args *LoadArgs, reply *LoadReply) error {
	bytes, err := formatting.Decode(args.Encoding, args.Bytes)
	if err != nil {
		return fmt.Errorf("couldn't decode executable bytes: %s", err)
	}
	exec, err := LoadFromBinary(bytes)
	if err != nil {
		return err
	}
	s.exec = exec
	log.Info("loaded executable", "globals", len(exec.FuncTable), "constants", len(exec.Constants))
	reply.Globals = len(exec.FuncTable)
	reply.Constants = len(exec.Constants)
	return nil
}

// StatsReply is the reply from Stats
type StatsReply struct {
	Stats string `json:"stats"`
}

// Stats returns the executable's summary line
func (s *Service) Stats(_ *http.Request, _ *struct{}, reply *StatsReply) error {
	if s.exec == nil {
		return errNoExecutable
	}
	reply.Stats = s.exec.Stats()
	return nil
}

// DisassembleArgs are arguments for Disassemble
type DisassembleArgs struct {
	Format string `json:"format"`
}

// DisassembleReply is the reply from Disassemble
type DisassembleReply struct {
	Program string `json:"program"`
}

// Disassemble renders the program in the requested dialect
// ("text" or "python")
func (s *Service) Disassemble(_ *http.Request, args *DisassembleArgs, reply *DisassembleReply) error {
	if s.exec == nil {
		return errNoExecutable
	}
	switch args.Format {
	case "", "text":
		reply.Program = s.exec.AsText()
	case "python":
		reply.Program = s.exec.AsPython()
	default:
		return fmt.Errorf("unknown disassembly format %q", args.Format)
	}
	return nil
}

// HasFunctionArgs are arguments for HasFunction
type HasFunctionArgs struct {
	Name string `json:"name"`
}

// HasFunctionReply is the reply from HasFunction
type HasFunctionReply struct {
	Found bool `json:"found"`
}

// HasFunction reports whether the named global is declared
func (s *Service) HasFunction(_ *http.Request, args *HasFunctionArgs, reply *HasFunctionReply) error {
	if s.exec == nil {
		return errNoExecutable
	}
	reply.Found = s.exec.HasFunction(args.Name)
	return nil
}
