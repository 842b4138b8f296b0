package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loicSchussler/PaperChat/internal/api"
	"github.com/loicSchussler/PaperChat/internal/chat"
)

var (
	convSkip  int
	convLimit int
)

// conversationsCmd inspects stored conversations outside the TUI
var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Inspect stored conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recent first",
	RunE:  listConversations,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a conversation's full history",
	Args:  cobra.ExactArgs(1),
	RunE:  showConversation,
}

func init() {
	conversationsListCmd.Flags().IntVar(&convSkip, "skip", 0, "Pagination offset")
	conversationsListCmd.Flags().IntVar(&convLimit, "limit", chat.DefaultListLimit, "Page size")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
}

func listConversations(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	items, err := newClient().ListConversations(ctx, convSkip, convLimit)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Println("No conversations.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMSGS\tUPDATED\tTITLE")
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n",
			item.ID, item.MessageCount, item.UpdatedAt.Format("2006-01-02 15:04"), item.Title)
	}
	return w.Flush()
}

func showConversation(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid conversation id %q", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	conv, err := newClient().GetConversation(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("# %s (conversation %d)\n\n", conv.Title, conv.ID)
	for _, msg := range conv.Messages {
		switch msg.Role {
		case api.RoleUser:
			fmt.Printf("You: %s\n\n", msg.Content)
		case api.RoleAssistant:
			fmt.Printf("PaperChat: %s\n", msg.Content)
			for i, src := range msg.Sources {
				fmt.Printf("  [%d] %s (%d), %s\n", i+1, src.PaperTitle, src.PaperYear, src.SectionName)
			}
			fmt.Println()
		}
	}
	return nil
}
