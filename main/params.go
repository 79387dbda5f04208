// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	versionKey = "version"
	inputKey   = "input"
	formatKey  = "format"
	serveKey   = "serve"
)

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("relaxvm", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints version and quit")
	fs.String(inputKey, "", "Path of the serialized executable to load")
	fs.String(formatKey, "text", "Rendering of the loaded executable: text, python or stats")
	fs.String(serveKey, "", "If set, serve the JSON-RPC API on this address instead of printing")

	return fs
}

// getViper returns the viper environment for the CLI
func getViper() (*viper.Viper, error) {
	v := viper.New()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	return v, nil
}
