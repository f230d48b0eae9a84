package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// components maps the command line arguments to App start methods. With
// no arguments every component runs in a single process; in production
// the api and collector are deployed separately.
var components = map[string]func(*App) error{
	"api":       (*App).StartAPIServer,
	"collector": (*App).StartUsageCollector,
	"metrics":   (*App).StartPeriodicMetrics,
}

func Main(args []string) error {
	cfg, err := NewConfigFromEnv()
	if err != nil {
		return err
	}
	cfg.Logger = getDefaultLogger()

	ctx, shutdown := context.WithCancel(context.Background())
	defer shutdown()
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Reset(syscall.SIGINT, syscall.SIGTERM)
		<-signalChan
		shutdown()
	}()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}

	if err := app.Init(); err != nil {
		return err
	}

	if len(args) == 0 {
		for name := range components {
			args = append(args, name)
		}
	}
	for _, name := range args {
		start, ok := components[name]
		if !ok {
			return fmt.Errorf("unknown component: %s", name)
		}
		if err := start(app); err != nil {
			return err
		}
	}

	return app.Wait()
}

func main() {
	if err := Main(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
