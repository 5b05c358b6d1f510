package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/deptdocs/revisor/client"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"versions"},
		Short:   "Inspect and restore content versions",
	}
	cmd.AddCommand(versionListCmd())
	cmd.AddCommand(versionGetCmd())
	cmd.AddCommand(versionRestoreCmd())
	cmd.AddCommand(versionStatsCmd())
	cmd.AddCommand(versionCompareCmd())
	return cmd
}

func parseVersionArg(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		fatal("parse version", fmt.Errorf("%q is not a positive version number", s))
	}
	return n
}

func versionListCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list <content-id>",
		Short: "List versions, newest first",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			versions, hasMore, err := apiClient.Versions.List(context.Background(), args[0], limit, offset)
			if err != nil {
				fatal("list versions", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, len(versions))
				for i, v := range versions {
					current := ""
					if v.IsCurrentVersion {
						current = "*"
					}
					rows[i] = []string{strconv.Itoa(v.VersionNumber), current, v.Status, authorName(v.Author, v.AuthorID), formatTime(v.CreatedAt), truncate(v.ChangesSummary, 50)}
				}
				formatTable([]string{"VERSION", "CUR", "STATUS", "AUTHOR", "CREATED", "SUMMARY"}, rows)
				return
			}
			output(map[string]any{"data": versions, "has_more": hasMore}, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func versionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <content-id> <version>",
		Short: "Get a single version",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			v, err := apiClient.Versions.Get(context.Background(), args[0], parseVersionArg(args[1]))
			if err != nil {
				fatal("get version", err)
			}
			output(v, strconv.Itoa(v.VersionNumber))
		},
	}
}

func versionRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <content-id> <version>",
		Short: "Restore an earlier version as a new version",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			item, err := apiClient.Versions.Restore(context.Background(), args[0], parseVersionArg(args[1]))
			if err != nil {
				fatal("restore version", err)
			}
			output(item, strconv.Itoa(item.Version))
		},
	}
}

func versionStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <content-id>",
		Short: "Show version count and first/last authors",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			stats, err := apiClient.Versions.Stats(context.Background(), args[0])
			if err != nil {
				fatal("version stats", err)
			}
			if flagFmt == "table" {
				rows := [][]string{
					{"Versions", strconv.Itoa(stats.Count)},
					{"First author", authorName(stats.FirstAuthor, stats.FirstAuthorID)},
					{"Last author", authorName(stats.LastAuthor, stats.LastAuthorID)},
				}
				if stats.FirstAt != nil {
					rows = append(rows, []string{"First at", formatTime(*stats.FirstAt)})
				}
				if stats.LastAt != nil {
					rows = append(rows, []string{"Last at", formatTime(*stats.LastAt)})
				}
				formatTable([]string{"METRIC", "VALUE"}, rows)
				return
			}
			output(stats, strconv.Itoa(stats.Count))
		},
	}
}

func versionCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <content-id> <from> <to>",
		Short: "Show field-level differences between two versions",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			cmp, err := apiClient.Versions.Compare(context.Background(), args[0], parseVersionArg(args[1]), parseVersionArg(args[2]))
			if err != nil {
				fatal("compare versions", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, len(cmp.Diffs))
				for i, d := range cmp.Diffs {
					rows[i] = []string{d.Field, d.ChangeType, truncate(fmt.Sprint(d.OldValue), 40), truncate(fmt.Sprint(d.NewValue), 40)}
				}
				formatTable([]string{"FIELD", "CHANGE", "OLD", "NEW"}, rows)
				return
			}
			output(cmp, strconv.Itoa(cmp.TotalChanges))
		},
	}
}

func authorName(a *client.Author, fallbackID string) string {
	switch {
	case a == nil:
		return fallbackID
	case a.DisplayName != "":
		return a.DisplayName
	default:
		return a.Username
	}
}
