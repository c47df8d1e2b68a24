package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
)

func main() {
	// cobra owns the command line; glog keeps its defaults.
	_ = flag.CommandLine.Parse(nil)
	defer glog.Flush()

	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
