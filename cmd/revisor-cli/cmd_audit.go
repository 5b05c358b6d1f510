package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/deptdocs/revisor/client"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and maintain the audit log",
	}
	cmd.AddCommand(auditQueryCmd())
	cmd.AddCommand(auditPurgeCmd())
	return cmd
}

func auditQueryCmd() *cobra.Command {
	var (
		opts  client.AuditQueryOptions
		since string
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query audit entries",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					fatal("parse --since", err)
				}
				opts.Since = &t
			}
			entries, hasMore, err := apiClient.Audit.Query(context.Background(), &opts)
			if err != nil {
				fatal("query audit", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, len(entries))
				for i, e := range entries {
					rows[i] = []string{strconv.FormatInt(e.ID, 10), formatTime(e.CreatedAt), e.Action, e.ResourceID, e.UserID, truncate(e.Description, 50)}
				}
				formatTable([]string{"ID", "TIME", "ACTION", "RESOURCE", "USER", "DESCRIPTION"}, rows)
				return
			}
			output(map[string]any{"data": entries, "has_more": hasMore}, "")
		},
	}
	cmd.Flags().StringVar(&opts.ResourceType, "resource-type", "", "Filter by resource type")
	cmd.Flags().StringVar(&opts.ResourceID, "resource-id", "", "Filter by resource ID")
	cmd.Flags().StringVar(&opts.Action, "action", "", "Filter by action")
	cmd.Flags().StringVar(&opts.UserID, "user", "", "Filter by acting user")
	cmd.Flags().StringVar(&since, "since", "", "Only entries at or after this RFC3339 time")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Max results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Offset for pagination")
	return cmd
}

func auditPurgeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete audit entries older than the retention window (admin only)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if days < 1 {
				fatal("purge audit", fmt.Errorf("--days must be at least 1, got %d", days))
			}
			n, err := apiClient.Audit.Purge(context.Background(), days)
			if err != nil {
				fatal("purge audit", err)
			}
			output(map[string]int{"deleted": n}, strconv.Itoa(n))
		},
	}
	cmd.Flags().IntVar(&days, "days", 90, "Retention window in days")
	return cmd
}
