package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quickstart/internal/archive"
	"github.com/conneroisu/quickstart/internal/version"
)

func newVersionCmd() *cobra.Command {
	var (
		versionFormat string
		versionShort  bool
		detailed      bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for quickstart including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)
- Archive format version written by export

Examples:
  quickstart version              # Show version
  quickstart version --short      # Show the version string only
  quickstart version --detailed   # Show every field
  quickstart version --format json # Output as JSON`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Show detailed version information")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		info := version.GetBuildInfo(int(archive.FormatVersion))
		out := cmd.OutOrStdout()

		switch versionFormat {
		case "json", "yaml":
			_, err := writeStructured(out, versionFormat, info)
			return err
		case "text":
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", versionFormat)
		}

		switch {
		case versionShort:
			fmt.Fprintln(out, info.Short())
		case detailed:
			fmt.Fprintln(out, info.Detailed())
			if info.IsRelease() {
				fmt.Fprintln(out, "Build type: release")
			} else {
				fmt.Fprintln(out, "Build type: development")
			}
		default:
			fmt.Fprintf(out, "quickstart %s\n", info.Short())
			fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
			fmt.Fprintf(out, "Platform: %s\n", info.Platform)
		}
		return nil
	}

	return cmd
}
