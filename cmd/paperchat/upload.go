package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// uploadConcurrency bounds parallel uploads; PDF extraction is the
// expensive part on the backend, so more parallelism just queues there.
const uploadConcurrency = 3

// uploadCmd uploads one or more PDF papers for indexing
var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload PDF papers for indexing",
	Long: `Uploads one or more PDF files to the backend, which extracts the text,
splits it into chunks and indexes them for retrieval.

Example:
  paperchat upload attention.pdf bert.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: uploadPapers,
}

func uploadPapers(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newClient()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	var mu sync.Mutex
	uploaded := 0

	for _, path := range args {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			paper, err := client.UploadPaper(ctx, filepath.Base(path), f)
			if err != nil {
				return fmt.Errorf("upload %s: %w", path, err)
			}

			logger.Info("paper uploaded",
				zap.String("file", path),
				zap.Int64("paper_id", paper.ID),
				zap.Int("chunks", paper.NbChunks))

			mu.Lock()
			uploaded++
			fmt.Printf("✓ %s → paper %d (%q, %d chunks)\n", path, paper.ID, paper.Title, paper.NbChunks)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Printf("%d paper(s) uploaded.\n", uploaded)
	return nil
}
