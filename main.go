// errtracer drives a target program through every configured
// (call position, injected error variant) combination via an LD_PRELOAD
// shim, and aggregates the observed call sequences into a control-flow
// graph.
package main

import (
	"fmt"
	"os"

	"errtracer/cmd"
	"errtracer/errors"
	"errtracer/sandbox"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == sandbox.ReexecArg {
		if err := sandbox.Init(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "errtracer: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := cmd.Execute(); err != nil {
		if kind, ok := errors.GetKind(err); ok {
			fmt.Fprintf(os.Stderr, "errtracer: %s: %v\n", kind, err)
		} else {
			fmt.Fprintf(os.Stderr, "errtracer: %v\n", err)
		}
		os.Exit(1)
	}
}
