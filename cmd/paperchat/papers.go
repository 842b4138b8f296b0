package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loicSchussler/PaperChat/internal/api"
)

var (
	papersSearch string
	papersYear   int
	papersSkip   int
	papersLimit  int
)

// papersCmd manages the indexed paper library
var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Manage the indexed paper library",
}

var papersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed papers",
	RunE:  listPapers,
}

var papersShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a paper's metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  showPaper,
}

var papersDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove a paper and its index chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  deletePaper,
}

func init() {
	papersListCmd.Flags().StringVar(&papersSearch, "search", "", "Filter by title or author substring")
	papersListCmd.Flags().IntVar(&papersYear, "year", 0, "Filter by publication year")
	papersListCmd.Flags().IntVar(&papersSkip, "skip", 0, "Pagination offset")
	papersListCmd.Flags().IntVar(&papersLimit, "limit", 50, "Page size")

	papersCmd.AddCommand(papersListCmd)
	papersCmd.AddCommand(papersShowCmd)
	papersCmd.AddCommand(papersDeleteCmd)
}

func listPapers(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	client := newClient()
	papers, err := client.ListPapers(ctx, api.ListPapersParams{
		Skip:   papersSkip,
		Limit:  papersLimit,
		Search: papersSearch,
		Year:   papersYear,
	})
	if err != nil {
		return err
	}

	if len(papers) == 0 {
		fmt.Println("No papers indexed.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tYEAR\tCHUNKS\tTITLE")
	for _, p := range papers {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", p.ID, p.Year, p.NbChunks, p.Title)
	}
	return w.Flush()
}

func showPaper(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid paper id %q", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	paper, err := newClient().GetPaper(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Title:    %s\n", paper.Title)
	fmt.Printf("Year:     %d\n", paper.Year)
	if len(paper.Authors) > 0 {
		fmt.Printf("Authors:  %s\n", strings.Join(paper.Authors, ", "))
	}
	if len(paper.Keywords) > 0 {
		fmt.Printf("Keywords: %s\n", strings.Join(paper.Keywords, ", "))
	}
	fmt.Printf("Chunks:   %d\n", paper.NbChunks)
	if paper.Abstract != "" {
		fmt.Printf("\n%s\n", paper.Abstract)
	}
	return nil
}

func deletePaper(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid paper id %q", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	if err := newClient().DeletePaper(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Paper %d deleted.\n", id)
	return nil
}
