package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	display  string
	document string
	logFile  string
	name     string
	verbose  bool
}

func (c *Config) validate() error {
	if strings.ContainsAny(c.name, " \t\n") {
		return fmt.Errorf("invalid session name (must not contain whitespace): %q", c.name)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "quizctl [flags] <questions.yaml|questions.xml>",
		Short:   "Console for the quiz master, drives a running quizdisplay.",
		Args:    cobra.ExactArgs(1),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.document = args[0]
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

	fs.StringVarP(&cfg.display, "display", "d", "", "display address, overrides the one in the question file (env: QUIZCTL_DISPLAY)")
	fs.StringVar(&cfg.logFile, "log", "quizctl.log", "file to write logs to (env: QUIZCTL_LOG)")
	fs.StringVarP(&cfg.name, "name", "n", "", "session name, random when empty (env: QUIZCTL_NAME)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log debug output (env: QUIZCTL_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizctl v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
