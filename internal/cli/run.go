package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/countstep/internal/ids"
	"github.com/lacquerai/countstep/internal/metrics"
	"github.com/lacquerai/countstep/internal/step"
)

const stdinPath = "-"

func addStepFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	flags.StringP("input-file", "f", stdinPath, "read the request from this file instead of stdin")
	flags.String("metrics-file", "", "write Prometheus metrics for this invocation to this file")
	flags.Bool("pretty", false, "indent the JSON response")

	_ = v.BindPFlag("input-file", flags.Lookup("input-file"))
	_ = v.BindPFlag("metrics-file", flags.Lookup("metrics-file"))
	_ = v.BindPFlag("pretty", flags.Lookup("pretty"))
}

// runStep executes one request-response cycle against the command's stdio.
func runStep(cmd *cobra.Command, v *viper.Viper) error {
	start := time.Now()
	logger := log.With().Str("invocation_id", ids.NewInvocationID()).Logger()

	in, closeInput, err := openInput(cmd, v.GetString("input-file"))
	if err != nil {
		return err
	}
	defer closeInput()

	opts := step.Options{}
	if v.GetBool("pretty") {
		opts.Indent = "  "
	}

	logger.Debug().Str("input", v.GetString("input-file")).Msg("Processing request")

	resp, err := step.Process(cmd.Context(), in, cmd.OutOrStdout(), opts)
	elapsed := time.Since(start)

	var sum int64
	if resp != nil {
		sum = resp.Output.Sum
	}

	recorder := metrics.NewRecorder()
	recorder.Observe(step.Kind(err), sum, elapsed)
	if werr := recorder.WriteTextfile(v.GetString("metrics-file")); werr != nil {
		logger.Warn().Err(werr).Msg("Failed to write metrics")
	}

	if err != nil {
		logger.Error().
			Err(err).
			Str("kind", step.Kind(err)).
			Dur("duration", elapsed).
			Msg("Step failed")
		return err
	}

	logger.Info().
		Int64("sum", sum).
		Dur("duration", elapsed).
		Msg("Step completed")

	return nil
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" || path == stdinPath {
		return cmd.InOrStdin(), func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input file: %w", err)
	}

	return f, func() { _ = f.Close() }, nil
}
