package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Server status commands",
	}
	cmd.AddCommand(adminHealthCmd())
	cmd.AddCommand(adminReadyCmd())
	return cmd
}

func adminHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server liveness",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := apiClient.Health(context.Background())
			if err != nil {
				fatal("health", err)
			}
			if flagFmt == "table" {
				formatTable(
					[]string{"FIELD", "VALUE"},
					[][]string{
						{"Status", resp.Status},
						{"Version", resp.Version},
						{"Backend", resp.Backend},
						{"Database", resp.Database},
						{"Schema", strconv.Itoa(resp.SchemaVersion)},
						{"WS clients", strconv.Itoa(resp.WSClients)},
						{"Uptime", fmt.Sprintf("%.0fs", resp.UptimeSeconds)},
					},
				)
				return
			}
			output(resp, resp.Status)
		},
	}
}

func adminReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (database and schema)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := apiClient.Ready(context.Background())
			if err != nil {
				fatal("ready", err)
			}
			output(resp, resp.Status)
		},
	}
}
