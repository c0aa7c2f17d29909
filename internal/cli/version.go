package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/countstep/internal/style"
)

// Build-time variables (set by goreleaser or build scripts)
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	BuiltBy   = "unknown"
	GoVersion = runtime.Version()
)

// VersionInfo represents version information
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func newVersionCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version information for countstep, including build details.`,
		Example: `
  countstep version               # Show basic version info
  countstep version --output json # Show version info as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showVersion(cmd.OutOrStdout(), v.GetString("output"))
		},
	}
}

func currentVersion() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		BuiltBy:   BuiltBy,
		GoVersion: GoVersion,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func showVersion(w io.Writer, outputFormat string) error {
	info := currentVersion()

	switch outputFormat {
	case "json":
		return style.PrintJSON(w, info)
	case "yaml":
		return style.PrintYAML(w, info)
	default:
		_, err := fmt.Fprintf(w, "%s\n", info.Version)
		return err
	}
}
