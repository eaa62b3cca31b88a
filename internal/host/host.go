// Package host is the event loop lexa hands control to after startup.
package host

import (
	"context"

	"github.com/lexaledger/lexa/internal/logger"
)

// Loop runs until its context is cancelled or it fails.
type Loop interface {
	Run(ctx context.Context) error
}

// Idle is a Loop that does nothing but wait for cancellation.
type Idle struct{}

// Run blocks until ctx is done.
func (Idle) Run(ctx context.Context) error {
	logger.Info("host loop running")
	<-ctx.Done()
	logger.Info("host loop stopped", "reason", context.Cause(ctx))
	return nil
}
