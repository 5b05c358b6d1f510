package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deptdocs/revisor/client"
)

func newContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Manage content items",
	}
	cmd.AddCommand(contentListCmd())
	cmd.AddCommand(contentGetCmd())
	cmd.AddCommand(contentCreateCmd())
	cmd.AddCommand(contentUpdateCmd())
	cmd.AddCommand(contentPublishCmd())
	cmd.AddCommand(contentArchiveCmd())
	return cmd
}

func contentListCmd() *cobra.Command {
	var opts client.ContentListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List content items",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			items, hasMore, err := apiClient.Content.List(context.Background(), &opts)
			if err != nil {
				fatal("list content", err)
			}
			if flagFmt == "table" {
				printContentTable(items)
				return
			}
			output(map[string]any{"data": items, "has_more": hasMore}, "")
		},
	}
	cmd.Flags().StringVar(&opts.DepartmentID, "department", "", "Filter by department")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (draft|published|archived)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Filter by content type")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Max results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Offset for pagination")
	return cmd
}

func printContentTable(items []client.ContentItem) {
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{it.ID, truncate(it.Title, 40), it.Type, it.Status, strconv.Itoa(it.Version), it.DepartmentID}
	}
	formatTable([]string{"ID", "TITLE", "TYPE", "STATUS", "VERSION", "DEPARTMENT"}, rows)
}

func contentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a content item by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			item, err := apiClient.Content.Get(context.Background(), args[0])
			if err != nil {
				fatal("get content", err)
			}
			output(item, strconv.Itoa(item.Version))
		},
	}
}

func contentCreateCmd() *cobra.Command {
	var (
		req  client.CreateContentRequest
		tags string
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a content item as version 1",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req.Title = args[0]
			req.Tags = splitTags(tags)
			item, err := apiClient.Content.Create(context.Background(), &req)
			if err != nil {
				fatal("create content", err)
			}
			output(item, item.ID)
		},
	}
	cmd.Flags().StringVar(&req.Slug, "slug", "", "URL slug (required)")
	cmd.Flags().StringVar(&req.Body, "body", "", "Body text")
	cmd.Flags().StringVar(&req.Type, "type", "sop", "Content type")
	cmd.Flags().StringVar(&req.Status, "status", "", "Initial status (default draft)")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	cmd.Flags().StringVar(&req.DepartmentID, "department", "", "Owning department (default: your own)")
	return cmd
}

func contentUpdateCmd() *cobra.Command {
	var (
		expected                               int
		title, slug, body, contentType, status string
		tags, summary                          string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a content item, recording a new version",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.UpdateContentRequest{ExpectedVersion: expected, ChangesSummary: summary}
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("slug") {
				req.Slug = &slug
			}
			if flags.Changed("body") {
				req.Body = &body
			}
			if flags.Changed("type") {
				req.Type = &contentType
			}
			if flags.Changed("status") {
				req.Status = &status
			}
			if flags.Changed("tags") {
				t := splitTags(tags)
				req.Tags = &t
			}
			item, err := apiClient.Content.Update(context.Background(), args[0], req)
			if err != nil {
				if client.IsConflict(err) {
					fatal("update content", fmt.Errorf("%w (re-fetch and retry with the new version)", err))
				}
				fatal("update content", err)
			}
			output(item, strconv.Itoa(item.Version))
		},
	}
	cmd.Flags().IntVar(&expected, "expected-version", 0, "Version the update is based on (required)")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&slug, "slug", "", "New slug")
	cmd.Flags().StringVar(&body, "body", "", "New body")
	cmd.Flags().StringVar(&contentType, "type", "", "New content type")
	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().StringVar(&tags, "tags", "", "Replacement comma-separated tags")
	cmd.Flags().StringVar(&summary, "summary", "", "Changes summary (default: derived from the diff)")
	_ = cmd.MarkFlagRequired("expected-version")
	return cmd
}

func contentPublishCmd() *cobra.Command {
	return transitionCmd("publish", "Publish a content item", func() transitionFunc { return apiClient.Content.Publish })
}

func contentArchiveCmd() *cobra.Command {
	return transitionCmd("archive", "Archive a content item", func() transitionFunc { return apiClient.Content.Archive })
}

// transitionFunc is resolved at run time, after the client exists.
type transitionFunc func(ctx context.Context, id string, expectedVersion int) (*client.ContentItem, error)

func transitionCmd(name, short string, fn func() transitionFunc) *cobra.Command {
	var expected int
	cmd := &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			item, err := fn()(context.Background(), args[0], expected)
			if err != nil {
				fatal(name+" content", err)
			}
			output(item, strconv.Itoa(item.Version))
		},
	}
	cmd.Flags().IntVar(&expected, "expected-version", 0, "Version the change is based on (required)")
	_ = cmd.MarkFlagRequired("expected-version")
	return cmd
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
