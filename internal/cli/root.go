package cli

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/countstep/internal/style"
)

// rootOptions holds the global flags shared by every command.
type rootOptions struct {
	cfgFile string
	config  *viper.Viper
}

// NewRootCommand builds the countstep command tree. Running the root
// command with no subcommand executes one step.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{config: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "countstep",
		Short: "countstep - one iteration of a decentralized counter",
		Long: `countstep reads a single JSON request from standard input, advances the
counter and writes a single JSON response to standard output.

A request whose input contains "start" resets the counter to 1:

  {"input": {"start": true}}  ->  {"output": {"sum": 1}}

Any other request increments the previous sum:

  {"input": {"sum": 5}}       ->  {"output": {"sum": 6}}

On failure nothing is written to standard output and the process exits
with status 1.`,
		Example: `
  echo '{"input": {"start": true}}' | countstep
  countstep --input-file request.json --metrics-file /var/lib/node_exporter/countstep.prom`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.initConfig(); err != nil {
				return err
			}
			opts.initLogging(cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(cmd, opts.config)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.countstep/config.yaml)")
	flags.String("log-level", "disabled", "log level (debug, info, warn, error); logs go to stderr")
	flags.String("output", "text", "output format for informational commands (text, json, yaml)")
	flags.BoolP("quiet", "q", false, "suppress all logging")

	_ = opts.config.BindPFlag("log-level", flags.Lookup("log-level"))
	_ = opts.config.BindPFlag("output", flags.Lookup("output"))
	_ = opts.config.BindPFlag("quiet", flags.Lookup("quiet"))

	addStepFlags(rootCmd, opts.config)

	rootCmd.AddCommand(newVersionCommand(opts.config))
	rootCmd.AddCommand(newSchemaCommand())

	return rootCmd
}

// Execute runs the command tree against the process's stdio. It is called
// by main.main() and cancels the step on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fang.Execute(ctx, NewRootCommand(), fang.WithColorSchemeFunc(func(lightDark lipgloss.LightDarkFunc) fang.ColorScheme {
		return fang.ColorScheme{
			Base:           style.PrimaryTextColor,
			Title:          style.AccentColor,
			Description:    style.PrimaryTextColor,
			Codeblock:      style.CodeColor,
			Program:        style.AccentColor,
			DimmedArgument: style.MutedColor,
			Comment:        style.MutedColor,
			Flag:           style.InfoColor,
			FlagDefault:    style.MutedColor,
			Command:        style.SuccessColor,
			QuotedString:   style.WarningColor,
			Argument:       style.PrimaryTextColor,
			Help:           style.InfoColor,
			Dash:           style.MutedColor,
			ErrorHeader:    [2]color.Color{style.ErrorColor, style.ErrorBgColor},
			ErrorDetails:   style.ErrorColor,
		}
	}))
}

// initConfig reads in $HOME/.countstep/.env, the config file and
// COUNTSTEP_* environment variables. The working directory is never
// searched.
func (o *rootOptions) initConfig() error {
	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		_ = godotenv.Load(filepath.Join(home, ".countstep", ".env"))
	}

	v := o.config
	if o.cfgFile != "" {
		v.SetConfigFile(o.cfgFile)
	} else {
		if homeErr == nil {
			v.AddConfigPath(filepath.Join(home, ".countstep"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("COUNTSTEP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	return nil
}

// initLogging configures the global logger. Logs never touch stdout, which
// carries the step response.
func (o *rootOptions) initLogging(w io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := o.config.GetString("log-level")
	if o.config.GetBool("quiet") {
		level = "disabled"
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	if o.config.GetString("output") == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}

	if used := o.config.ConfigFileUsed(); used != "" {
		log.Debug().Str("file", used).Msg("Using config file")
	}
}

// getVersion returns the version string shown by --version
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, go: %s)", Version, Commit, Date, GoVersion)
}
