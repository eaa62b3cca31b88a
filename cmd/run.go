package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexaledger/lexa/internal/host"
	"github.com/lexaledger/lexa/internal/startup"
	"github.com/spf13/cobra"
)

// hostLoop is the loop entered after a successful startup
var hostLoop host.Loop = host.Idle{}

// runHost is the default command: start up, then run the host loop until
// SIGINT or SIGTERM
func runHost(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	seq, _, err := newSequencer(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return startup.Launch(ctx, seq, hostLoop)
}
