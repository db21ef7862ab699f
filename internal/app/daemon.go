package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"horse.fit/pulse/internal/cli"
	"horse.fit/pulse/internal/httpapi"
	"horse.fit/pulse/internal/scheduler"
)

// runDaemon starts the job scheduler and the API server together and blocks
// until interrupted.
func runDaemon(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	noAPI := fs.Bool("no-api", false, "Run the scheduler without the API server")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run does not accept positional arguments")
		return 2
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	rt, err := bootstrap(dbCtx, envLoader)
	dbCancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	sched := scheduler.New(rt.cfg, rt.pool, newRegistry(rt.logger), newEnricher(rt), newTopicBuilder(rt), rt.logger)

	if *noAPI {
		sched.Run(ctx)
		return 0
	}

	go sched.Run(ctx)

	srv := httpapi.NewServer(rt.pool, sched, rt.logger, httpapi.Options{
		Host: rt.cfg.HTTPHost,
		Port: rt.cfg.HTTPPort,
	})
	if err := srv.Start(ctx); err != nil {
		rt.logger.Error().Err(err).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
