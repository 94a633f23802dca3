package main

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/qnkhuat/quizterm/pkg/logging"
	"github.com/qnkhuat/quizterm/pkg/sshhost"
)

const (
	releaseVersion = "0.1.0"
)

func run(ctx context.Context, cfg *Config) error {
	closer, err := logging.Init(cfg.logFile, "ssh", cfg.verbose)
	if err != nil {
		return err
	}
	defer closer.Close()

	binary, err := exec.LookPath(cfg.console)
	if err != nil {
		return err
	}

	s := &sshhost.Server{
		ListenAddress: cfg.listen,
		HostKeyPath:   cfg.hostKey,
		Password:      cfg.password,
		Binary:        binary,
		Args:          cfg.args,
	}
	return s.ListenAndServe(ctx)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		color.Yellow("could not load .env file: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	if err := newCmd(cfg).ExecuteContext(ctx); err != nil {
		cobra.CheckErr(color.RedString("%s", err))
	}
}
