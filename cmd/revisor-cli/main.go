package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deptdocs/revisor/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3040"

var (
	apiClient *client.Client
	flagURL   string
	flagKey   string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("revisor-cli version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("revisor-cli version %s-dev", version)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "revisor-cli",
		Short:   "Command-line client for the revisor content versioning API",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			opts := []client.Option{
				client.WithUserAgent("revisor-cli/" + version),
				client.WithRetries(2),
			}
			if flagKey != "" {
				opts = append(opts, client.WithAPIKey(flagKey))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Revisor server URL (env: REVISOR_URL)")
	rootCmd.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: REVISOR_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	initCmd := newInitCmd()
	initCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // no client needed
	doctorCmd := newDoctorCmd()
	doctorCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(newContentCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newNotificationCmd())
	rootCmd.AddCommand(newAdminCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig fills flagURL and flagKey. An explicit flag wins, then
// REVISOR_URL / REVISOR_API_KEY, then ~/.revisor/config.yaml.
func resolveConfig() {
	if flagURL == defaultURL {
		if v := os.Getenv("REVISOR_URL"); v != "" {
			flagURL = v
		}
	}
	if flagKey == "" {
		flagKey = os.Getenv("REVISOR_API_KEY")
	}

	_, cfg, err := loadConfigFile()
	if err != nil {
		return
	}

	url, key := cfg.active()
	if flagURL == defaultURL && url != "" {
		flagURL = url
	}
	if flagKey == "" && key != "" {
		flagKey = key
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
