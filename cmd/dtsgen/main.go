package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/teranos/dtsgen/cmd/dtsgen/commands"
	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.NewRootCmd().ExecuteContext(ctx)
	stop()
	logger.Cleanup()

	if err != nil {
		pterm.Error.Println(err.Error())
		if hint := errors.Hints(err); hint != "" {
			pterm.Info.Println(hint)
		}
		os.Exit(1)
	}
}
