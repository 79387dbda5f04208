// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"net/http"
	"os"

	log "github.com/inconshreveable/log15"

	"github.com/relaxml/relaxvm/relaxvm"
)

func main() {
	v, err := getViper()
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}

	if v.GetBool(versionKey) {
		fmt.Printf("%s@%s\n", relaxvm.Name, relaxvm.BytecodeVersion)
		os.Exit(0)
	}

	if addr := v.GetString(serveKey); addr != "" {
		service := relaxvm.NewService()
		handler, err := relaxvm.NewHandler(service)
		if err != nil {
			log.Error("couldn't create handler", "error", err)
			os.Exit(1)
		}
		log.Info("serving relaxvm API", "addr", addr)
		if err := http.ListenAndServe(addr, handler); err != nil {
			log.Error("server returned an error", "error", err)
			os.Exit(1)
		}
		return
	}

	input := v.GetString(inputKey)
	if input == "" {
		fmt.Println("no --input executable given")
		os.Exit(1)
	}
	exec, err := relaxvm.LoadFromFile(input)
	if err != nil {
		log.Error("couldn't load executable", "path", input, "error", err)
		os.Exit(1)
	}

	switch format := v.GetString(formatKey); format {
	case "text":
		fmt.Print(exec.AsText())
	case "python":
		fmt.Print(exec.AsPython())
	case "stats":
		fmt.Print(exec.Stats())
	default:
		fmt.Printf("unknown format %q\n", format)
		os.Exit(1)
	}
}
