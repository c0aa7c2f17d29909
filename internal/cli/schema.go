package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lacquerai/countstep/internal/step"
)

// SchemaOutput represents the combined output structure
type SchemaOutput struct {
	Request  json.RawMessage `json:"request"`
	Response json.RawMessage `json:"response"`
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [request|response]",
		Short:     "Output the JSON schemas of the step's documents",
		Long:      `Output the JSON Schema of the request read from stdin, the response written to stdout, or both.`,
		Hidden:    true,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"request", "response"},
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := step.MarshalSchema(step.RequestSchema())
			if err != nil {
				return fmt.Errorf("generating request schema: %w", err)
			}
			response, err := step.MarshalSchema(step.ResponseSchema())
			if err != nil {
				return fmt.Errorf("generating response schema: %w", err)
			}

			var out []byte
			switch {
			case len(args) == 0:
				out, err = json.MarshalIndent(SchemaOutput{Request: request, Response: response}, "", "  ")
				if err != nil {
					return err
				}
			case args[0] == "request":
				out = request
			default:
				out = response
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
