package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/qnkhuat/quizterm/pkg/display"
	"github.com/qnkhuat/quizterm/pkg/gui"
	"github.com/qnkhuat/quizterm/pkg/logging"
	"github.com/qnkhuat/quizterm/pkg/protocol"
)

const (
	releaseVersion = "0.1.0"
)

func run(ctx context.Context, cfg *Config) error {
	closer, err := logging.Init(cfg.logFile, "display", cfg.verbose)
	if err != nil {
		return err
	}
	defer closer.Close()

	theme, err := gui.LoadTheme(cfg.themeFile, cfg.theme)
	if err != nil {
		return err
	}

	l, err := protocol.Listen(cfg.listen)
	if err != nil {
		return err
	}
	defer l.Close()
	log.Info().Str("addr", l.Addr()).Msg("display started")

	sink := gui.NewSink(theme, cfg.title)
	app := tview.NewApplication()
	sink.Attach(app)

	engine := display.NewEngine(sink, display.WithTickInterval(cfg.tick))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := engine.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	// The display ends when the quiz master says goodbye.
	g.Go(func() error {
		defer cancel()
		return engine.Accept(gctx, l)
	})

	g.Go(func() error {
		defer cancel()
		return app.Run()
	})

	g.Go(func() error {
		<-gctx.Done()
		app.Stop()
		return nil
	})

	err = g.Wait()
	log.Info().Err(err).Msg("display stopped")
	return err
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
