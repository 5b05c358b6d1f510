package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newNotificationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Read your notifications",
	}
	cmd.AddCommand(notificationListCmd())
	cmd.AddCommand(notificationReadCmd())
	cmd.AddCommand(notificationReadAllCmd())
	return cmd
}

func notificationListCmd() *cobra.Command {
	var (
		unread        bool
		limit, offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			list, hasMore, err := apiClient.Notifications.List(context.Background(), unread, limit, offset)
			if err != nil {
				fatal("list notifications", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, len(list))
				for i, n := range list {
					read := ""
					if n.IsRead {
						read = "yes"
					}
					rows[i] = []string{n.ID, formatTime(n.CreatedAt), n.Priority, read, truncate(n.Title, 50)}
				}
				formatTable([]string{"ID", "TIME", "PRIORITY", "READ", "TITLE"}, rows)
				return
			}
			output(map[string]any{"data": list, "has_more": hasMore}, "")
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")
	cmd.Flags().IntVar(&limit, "limit", 50, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func notificationReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Notifications.MarkRead(context.Background(), args[0]); err != nil {
				fatal("mark notification read", err)
			}
			fmt.Println("marked read")
		},
	}
}

func notificationReadAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark all notifications as read",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			n, err := apiClient.Notifications.MarkAllRead(context.Background())
			if err != nil {
				fatal("mark all read", err)
			}
			output(map[string]int{"updated": n}, strconv.Itoa(n))
		},
	}
}
