package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"

	"github.com/yiblet/clipq/internal/cli"
)

func main() {
	var args cli.Args
	parser := arg.MustParse(&args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := cli.New(&args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = c.Execute(ctx, &args)
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if args.HasCommand() {
			fmt.Fprintln(os.Stderr)
			parser.WriteUsage(os.Stderr)
		}
		os.Exit(1)
	}
}
