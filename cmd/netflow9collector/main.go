// Command netflow9collector listens for NetFlow v9 exports, decodes them,
// and publishes the result through a configurable transport.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowforge/netflow9collector/internal/app"
	"github.com/flowforge/netflow9collector/internal/config"

	_ "github.com/flowforge/netflow9collector/transport/file"
	_ "github.com/flowforge/netflow9collector/transport/kafka"
)

var (
	version    = ""
	buildinfos = ""
	appVersion = "netflow9collector " + version + " " + buildinfos
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cfg := config.BindFlags(fs)
	printVersion := fs.Bool("v", false, "Print version")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if *printVersion {
		fmt.Println(appVersion)
		return
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to build collector", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		slog.Error("collector exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
