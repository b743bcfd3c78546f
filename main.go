package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gdl/pkg/common"
	"gdl/pkg/config"
	"gdl/pkg/display"
	"gdl/pkg/launcher"
)

// EnvVerbose enables verbose output. The launcher defines no flags of its
// own: every command-line argument belongs to the digitizer.
const EnvVerbose = "GDL_VERBOSE"

func main() {
	res, err := GdlEngine(context.Background(), os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(res.ExitCode)
}

// GdlEngine runs one launcher pass and returns the result main exits with.
func GdlEngine(ctx context.Context, args []string) (*common.ExecutionResult, error) {
	verbose := os.Getenv(EnvVerbose) != ""

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	disp := display.NewConsole()
	defer disp.Close()
	disp.SetVerbose(verbose)

	sysCfg, err := config.Init()
	if err != nil {
		return nil, fmt.Errorf("error initializing config: %w", err)
	}
	sysCfg.Freeze()

	mgr := launcher.NewManager(sysCfg, disp)
	return mgr.Run(ctx, args), nil
}
