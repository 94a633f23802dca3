package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/qnkhuat/quizterm/pkg/bank"
	"github.com/qnkhuat/quizterm/pkg/console"
	"github.com/qnkhuat/quizterm/pkg/logging"
	"github.com/qnkhuat/quizterm/pkg/protocol"
)

const (
	releaseVersion = "0.1.0"
)

// displayAddress prefers the flag, then the question file, then the local
// default port.
func displayAddress(cfg *Config, doc *bank.Document) string {
	if cfg.display != "" {
		return cfg.display
	}
	if addr := doc.Display.Address(); addr != "" {
		return addr
	}
	return fmt.Sprintf("localhost:%d", protocol.DefaultPort)
}

func run(ctx context.Context, cfg *Config) error {
	closer, err := logging.Init(cfg.logFile, "control", cfg.verbose)
	if err != nil {
		return err
	}
	defer closer.Close()

	doc, err := bank.ReadDocument(cfg.document)
	if err != nil {
		return err
	}
	b, err := bank.Load(doc.Raw())
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("quizctl needs an interactive terminal")
	}

	addr := displayAddress(cfg, doc)
	t, err := protocol.Dial(ctx, addr)
	if err != nil {
		return err
	}

	var opts []protocol.ControllerOption
	if cfg.name != "" {
		opts = append(opts, protocol.WithSessionName(cfg.name))
	}
	ctl, err := protocol.Connect(ctx, t, b, opts...)
	if err != nil {
		return err
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		ctl.Close(ctx, "terminal")
		return fmt.Errorf("raw terminal: %w", err)
	}
	defer term.Restore(fd, oldState)

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}

	err = console.New(ctl, os.Stdout).Run(ctx, rw)
	log.Info().Err(err).Str("display", addr).Msg("console closed")
	return err
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		color.Yellow("could not load .env file: %s", err)
	}

	cfg := &Config{}
	if err := newCmd(cfg).Execute(); err != nil {
		cobra.CheckErr(color.RedString("%s", err))
	}
}
