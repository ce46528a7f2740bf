package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mediatopicbot/internal/app"
	"mediatopicbot/internal/config"
)

func main() {
	var optionsPath string
	flag.StringVar(&optionsPath, "options", "", "path to optional options yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal: configuration:", err)
		os.Exit(1)
	}

	a, err := app.New(settings, optionsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}

	<-ctx.Done()
	_ = a.Stop(context.Background())
}
