package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinummonkey/plugload/pkg/cli"
	"github.com/platinummonkey/plugload/pkg/plugins"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(plugins.NewKinds()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
