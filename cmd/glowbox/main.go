// Command glowbox enhances new Dropbox images with the OpenAI image API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/glowbox/internal/adapters/driving/cli"
	"github.com/custodia-labs/glowbox/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = ""

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, newContainer, version)
	stop()
	_ = logger.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
