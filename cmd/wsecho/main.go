package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/drake/wsecho/config"
	"github.com/drake/wsecho/debug"
	"github.com/drake/wsecho/internal/logging"
	"github.com/drake/wsecho/network"
	"github.com/drake/wsecho/session"
	"github.com/drake/wsecho/ui"
	"github.com/drake/wsecho/ui/tui"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run owns every deferred cleanup so main can exit with its status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// Parse flags
	fs := flag.NewFlagSet("wsecho", flag.ContinueOnError)
	fs.SetOutput(stderr)
	simpleUI := fs.Bool("simple", false, "Use simple console UI instead of TUI")
	logPath := fs.String("log", config.LogFile(), "Diagnostics log file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Open falls back to a no-op logger; the client works without diagnostics.
	log, logFile, err := logging.Open(*logPath, config.Debug())
	if err != nil {
		fmt.Fprintln(stderr, "Diagnostics log disabled:", err)
	}
	defer logFile.Close()

	log.Info().Str("endpoint", config.Endpoint).Bool("simple", *simpleUI).Msg("starting")

	client := network.NewClient(log)
	defer client.Stop()

	// Select UI mode
	var display ui.UI
	if *simpleUI {
		display = ui.NewConsoleUI(stdin, stdout)
	} else {
		display = tui.NewBubbleTeaUI(log)
	}

	sess := session.New(client, display, session.Config{
		Endpoint:    config.Endpoint,
		InitScript:  config.InitFile(),
		UserScripts: fs.Args(),
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	debug.NewMonitor(ctx, sess, log).Start()

	if err := sess.Run(); err != nil {
		log.Error().Err(err).Msg("ui exited with error")
		fmt.Fprintln(stderr, "UI error:", err)
		return 1
	}
	log.Info().Msg("exiting")
	return 0
}
