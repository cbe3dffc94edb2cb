package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gowvp/lookout/internal/app"
	"github.com/gowvp/lookout/internal/conf"
)

var buildVersion = "0.0.1"

var (
	configPath = flag.String("conf", "", "config file path, default configs/config.toml")
	initConfig = flag.String("init", "", "write default config to the given path and exit")
)

func main() {
	flag.Parse()

	if *initConfig != "" {
		cfg := conf.DefaultConfig()
		if err := conf.WriteConfig(&cfg, *initConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	bc, err := conf.SetupConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	bc.BuildVersion = buildVersion

	log := app.SetupLog(os.Stdout, bc.Log)
	log.Info("starting lookout", "config", bc.ConfigPath, "version", buildVersion)

	a, err := app.New(bc, log)
	if err != nil {
		log.Error("build app", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		log.Error("start", "err", err)
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-a.Done():
		if err != nil {
			log.Error("http server exited", "err", err)
		}
	}

	timeout := bc.Server.HTTP.ShutdownTimeout.Duration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := a.Stop(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
		os.Exit(1)
	}
	log.Info("lookout stopped")
}
