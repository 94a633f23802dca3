package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/qnkhuat/quizterm/pkg/sshhost"
)

type Config struct {
	console  string
	args     []string
	hostKey  string
	listen   string
	logFile  string
	password string
	verbose  bool
}

func (c *Config) validate() error {
	if c.console == "" {
		return errors.New("--console must not be empty")
	}
	if c.hostKey == "" {
		return errors.New("--host-key must not be empty")
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZSSH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "quizssh [flags] [-- quizctl arguments]",
		Short:   "Serves the quiz master console over ssh.",
		Args:    cobra.ArbitraryArgs,
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.args = args
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

	fs.StringVarP(&cfg.console, "console", "c", "quizctl", "console binary to start for each session (env: QUIZSSH_CONSOLE)")
	fs.StringVarP(&cfg.hostKey, "host-key", "k", "quizssh_host_key", "host key file, created when missing (env: QUIZSSH_HOST_KEY)")
	fs.StringVarP(&cfg.listen, "listen", "l", sshhost.DefaultAddress, "address to listen on (env: QUIZSSH_LISTEN)")
	fs.StringVar(&cfg.logFile, "log", "", "file to write logs to, stderr when empty (env: QUIZSSH_LOG)")
	fs.StringVarP(&cfg.password, "password", "p", "", "password for ssh logins, none when empty (env: QUIZSSH_PASSWORD)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log debug output (env: QUIZSSH_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizssh v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
