package client

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/relaxml/relaxvm/relaxvm"
)

// Client defines relaxvm client operations.
type Client interface {
	// Load submits a serialized executable
	Load(ctx context.Context, execBytes []byte) (int, int, error)

	// Stats fetches the loaded executable's summary
	Stats(ctx context.Context) (string, error)

	// Disassemble fetches the program in the requested dialect
	Disassemble(ctx context.Context, format string) (string, error)

	// HasFunction checks whether a global is declared
	HasFunction(ctx context.Context, name string) (bool, error)
}

// New creates a new client object.
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) Load(ctx context.Context, execBytes []byte) (int, int, error) {
	bytes, err := formatting.Encode(formatting.Hex, execBytes)
	if err != nil {
		return 0, 0, err
	}

	resp := new(relaxvm.LoadReply)
	err = cli.req.SendRequest(ctx,
		"relaxvm.load",
		&relaxvm.LoadArgs{Bytes: bytes, Encoding: formatting.Hex},
		resp,
	)
	if err != nil {
		return 0, 0, err
	}
	return resp.Globals, resp.Constants, nil
}

func (cli *client) Stats(ctx context.Context) (string, error) {
	resp := new(relaxvm.StatsReply)
	err := cli.req.SendRequest(ctx, "relaxvm.stats", &struct{}{}, resp)
	if err != nil {
		return "", err
	}
	return resp.Stats, nil
}

func (cli *client) Disassemble(ctx context.Context, format string) (string, error) {
	resp := new(relaxvm.DisassembleReply)
	err := cli.req.SendRequest(ctx,
		"relaxvm.disassemble",
		&relaxvm.DisassembleArgs{Format: format},
		resp,
	)
	if err != nil {
		return "", err
	}
	return resp.Program, nil
}

func (cli *client) HasFunction(ctx context.Context, name string) (bool, error) {
	resp := new(relaxvm.HasFunctionReply)
	err := cli.req.SendRequest(ctx,
		"relaxvm.hasFunction",
		&relaxvm.HasFunctionArgs{Name: name},
		resp,
	)
	if err != nil {
		return false, err
	}
	return resp.Found, nil
}
