package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deptdocs/revisor/client"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against config, server readiness, and auth",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor() error {
	fmt.Println("\nRevisor Doctor")
	fmt.Println("==============")

	var results []checkResult

	cfgPath, cfg, cfgErr := loadConfigFile()
	if cfgErr != nil {
		results = append(results, checkResult{
			Name: "Config file", Detail: cfgPath,
			Hint: "Run: revisor-cli init",
		})
	} else {
		results = append(results, checkResult{
			Name: "Config file", Passed: true,
			Detail: fmt.Sprintf("found (%s)", cfgPath),
		})
	}

	url, apiKey := doctorResolveSettings(cfg)

	if url == "" {
		results = append(results, checkResult{
			Name: "Server URL",
			Hint: "Set --url, REVISOR_URL, or run revisor-cli init",
		})
	} else {
		results = append(results, checkResult{Name: "Server URL", Passed: true, Detail: url})
	}

	if apiKey == "" {
		results = append(results, checkResult{
			Name: "API key",
			Hint: "Set --api-key, REVISOR_API_KEY, or run revisor-cli init",
		})
	} else {
		results = append(results, checkResult{Name: "API key", Passed: true, Detail: "configured"})
	}

	if url != "" {
		results = append(results, doctorChecks(url, apiKey)...)
	}

	fmt.Println()
	allPassed := true
	for _, r := range results {
		mark := "✅"
		if !r.Passed {
			mark = "❌"
			allPassed = false
		}
		if r.Detail != "" {
			fmt.Printf("%s %s: %s\n", mark, r.Name, r.Detail)
		} else {
			fmt.Printf("%s %s\n", mark, r.Name)
		}
		if !r.Passed && r.Hint != "" {
			fmt.Printf("   Hint: %s\n", r.Hint)
		}
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("❌ Some checks failed.")
		return errors.New("doctor found issues")
	}

	fmt.Println("✅ All checks passed!")
	return nil
}

// doctorChecks probes liveness, readiness and, when a key is set,
// authentication.
func doctorChecks(url, apiKey string) []checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := client.New(url, client.WithAPIKey(apiKey))

	health, err := c.Health(ctx)
	if err != nil {
		return []checkResult{{
			Name: "Server reachable", Detail: url,
			Hint: fmt.Sprintf("Is the revisor server running? Try: revisor serve\n   Error: %v", err),
		}}
	}

	results := []checkResult{{
		Name: "Server reachable", Passed: true,
		Detail: fmt.Sprintf("v%s (%s backend)", health.Version, health.Backend),
	}}

	ready, err := c.Ready(ctx)
	switch {
	case err != nil:
		results = append(results, checkResult{
			Name: "Server ready",
			Hint: fmt.Sprintf("Run: revisor migrate\n   Error: %v", err),
		})
	default:
		results = append(results, checkResult{
			Name: "Server ready", Passed: true,
			Detail: fmt.Sprintf("schema %s", ready.Checks["schema"]),
		})
	}

	if apiKey == "" {
		return results
	}

	if _, _, err := c.Notifications.List(ctx, false, 1, 0); err != nil {
		results = append(results, checkResult{
			Name: "Authentication",
			Hint: fmt.Sprintf("Check your API key. Error: %v", err),
		})
	} else {
		results = append(results, checkResult{Name: "Authentication", Passed: true, Detail: "valid"})
	}

	return results
}

// doctorResolveSettings applies the same precedence as resolveConfig without
// touching the global flags.
func doctorResolveSettings(cfg *configFile) (url, apiKey string) {
	url, apiKey = flagURL, flagKey

	if url == defaultURL {
		if v := os.Getenv("REVISOR_URL"); v != "" {
			url = v
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("REVISOR_API_KEY")
	}

	if cfg != nil {
		fileURL, fileKey := cfg.active()
		if url == defaultURL && fileURL != "" {
			url = fileURL
		}
		if apiKey == "" {
			apiKey = fileKey
		}
	}

	return url, apiKey
}
