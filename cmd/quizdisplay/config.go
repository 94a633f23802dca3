package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/qnkhuat/quizterm/pkg/protocol"
)

type Config struct {
	listen    string
	logFile   string
	theme     string
	themeFile string
	tick      time.Duration
	title     string
	verbose   bool
}

func (c *Config) validate() error {
	if c.listen == "" {
		return errors.New("--listen must not be empty")
	}
	if c.tick < 10*time.Millisecond {
		return fmt.Errorf("invalid tick interval (must be at least 10ms): %s", c.tick)
	}
	if c.theme != "" && c.theme != "basic" && c.themeFile == "" {
		return fmt.Errorf("theme %q needs --theme-file", c.theme)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZDISPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "quizdisplay",
		Short:   "Shows the quiz board and waits for the quiz master to connect.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.listen, "listen", "l", fmt.Sprintf(":%d", protocol.DefaultPort), "address, unix socket path or ws:// url to listen on (env: QUIZDISPLAY_LISTEN)")
	fs.StringVar(&cfg.logFile, "log", "quizdisplay.log", "file to write logs to (env: QUIZDISPLAY_LOG)")
	fs.StringVarP(&cfg.theme, "theme", "t", "basic", "name of the theme to use (env: QUIZDISPLAY_THEME)")
	fs.StringVar(&cfg.themeFile, "theme-file", "", "yaml file with extra themes (env: QUIZDISPLAY_THEME_FILE)")
	fs.DurationVar(&cfg.tick, "tick", time.Second, "countdown tick interval (env: QUIZDISPLAY_TICK)")
	fs.StringVar(&cfg.title, "title", "Quiz", "title on the intro screen (env: QUIZDISPLAY_TITLE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log debug output (env: QUIZDISPLAY_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizdisplay v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
