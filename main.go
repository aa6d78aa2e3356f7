// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bvk/refresher/subcmds"
	"github.com/bvk/refresher/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

func main() {
	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.History),
		new(subcmds.DoubleOrders),
		new(subcmds.Gaps),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmdutil.ExitCode(err))
	}
}
