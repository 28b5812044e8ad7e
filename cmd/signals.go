package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// CatchCtrlC returns a context that is canceled upon SIGINT or SIGTERM, so
// that in-flight requests, queries and ogr2ogr processes are interrupted.
func CatchCtrlC(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
