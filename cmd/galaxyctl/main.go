// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command galaxyctl drives one interact() call against a galaxy
// program: `galaxyctl <modulated-state>? <modulated-vector>?`, per
// spec.md §6. Default state is Nil, default vector is cons(0, 0).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/galaxy-lang/galaxy/galaxy/ast"
	"github.com/galaxy-lang/galaxy/galaxy/interact"
	"github.com/galaxy-lang/galaxy/galaxy/load"
	"github.com/galaxy-lang/galaxy/galaxy/modem"
)

var (
	dashProgram string
	dashConfig  string
	dashServer  string
	dashAPIKey  string
	dashPrint   bool
	dashV       bool
)

func init() {
	flag.StringVar(&dashProgram, "program", "", "path to the galaxy token-stream source file (required)")
	flag.StringVar(&dashConfig, "config", "", "optional YAML config file (server, apiKey, stackSize)")
	flag.StringVar(&dashServer, "server", "", "alien server base URL (overrides -config; empty runs offline)")
	flag.StringVar(&dashAPIKey, "apikey", "", "alien server API key (overrides -config)")
	flag.BoolVar(&dashPrint, "print", false, "pretty-print state/data instead of showing modulated strings")
	flag.BoolVar(&dashV, "v", false, "verbose: log each interact() round-trip")
}

func exitf(code int, f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(code)
}

func main() {
	flag.Parse()
	if dashProgram == "" {
		exitf(2, "galaxyctl: -program is required")
	}

	cfg, err := loadConfig(dashConfig)
	if err != nil {
		exitf(2, "galaxyctl: %s", err)
	}
	if dashServer != "" {
		cfg.Server = dashServer
	}
	if dashAPIKey != "" {
		cfg.APIKey = dashAPIKey
	}

	f, err := os.Open(dashProgram)
	if err != nil {
		exitf(1, "galaxyctl: %s", err)
	}
	defer f.Close()

	globals, err := load.Load(f)
	if err != nil {
		exitf(1, "galaxyctl: loading %s: %s", dashProgram, err)
	}

	state, err := parseValueArg(flag.Arg(0), ast.NilNode())
	if err != nil {
		exitf(1, "galaxyctl: state argument: %s", err)
	}
	vector, err := parseValueArg(flag.Arg(1), ast.VectorNode(0, 0))
	if err != nil {
		exitf(1, "galaxyctl: vector argument: %s", err)
	}

	driver := interact.New(globals)
	if dashV {
		driver.Log = log.New(os.Stderr, "galaxyctl: ", log.LstdFlags)
	}

	var flagVal int64
	var newState, data *ast.Node
	interact.RunWithLargeStack(cfg.StackSize, func() {
		flagVal, newState, data, err = driver.Interact(state, vector)
	})
	if err != nil {
		exitf(1, "galaxyctl: interact: %s", err)
	}
	state = newState

	if flagVal == 0 {
		layers, perr := interact.Pictures(data)
		if perr != nil {
			exitf(1, "galaxyctl: %s", perr)
		}
		if dashPrint {
			fmt.Printf("state: %s\n", ast.Pretty(state))
			for i, l := range layers {
				fmt.Printf("layer %d: %d points\n", i, len(l))
			}
			return
		}
		modulatedState, merr := modem.Modulate(state)
		if merr != nil {
			exitf(1, "galaxyctl: modulating final state: %s", merr)
		}
		fmt.Println(modulatedState)
		fmt.Printf("# %d picture layer(s)\n", len(layers))
		return
	}

	send, err := interact.ParseSend(cfg.Server, cfg.APIKey)
	if err != nil {
		exitf(2, "galaxyctl: %s", err)
	}
	reply, err := driver.Send(send, data)
	if err != nil {
		exitf(1, "galaxyctl: sending data to alien server: %s", err)
	}

	if dashPrint {
		fmt.Printf("state: %s\n", ast.Pretty(state))
		fmt.Printf("next vector: %s\n", ast.Pretty(reply))
		return
	}
	modulatedState, err := modem.Modulate(state)
	if err != nil {
		exitf(1, "galaxyctl: modulating final state: %s", err)
	}
	modulatedReply, err := modem.Modulate(reply)
	if err != nil {
		exitf(1, "galaxyctl: modulating reply: %s", err)
	}
	fmt.Println(modulatedState)
	fmt.Println(modulatedReply)
}

func parseValueArg(arg string, def *ast.Node) (*ast.Node, error) {
	if arg == "" {
		return def, nil
	}
	return modem.Demodulate(arg)
}
