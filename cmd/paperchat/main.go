package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loicSchussler/PaperChat/internal/api"
	"github.com/loicSchussler/PaperChat/internal/config"
	"github.com/loicSchussler/PaperChat/internal/logging"
)

var (
	// Global flags
	apiURL  string
	debug   bool
	timeout time.Duration

	// Chat flags
	chatPapers     []int64
	chatMaxSources int

	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "paperchat",
	Short: "PaperChat - chat with your research paper library",
	Long: `PaperChat is a terminal client for a retrieval-augmented paper Q&A service.

Upload PDF papers to the backend, then ask questions against the library.
Answers come back with ranked citations into the papers they were drawn from.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Flags win over config file and environment.
		if apiURL != "" {
			cfg.APIURL = apiURL
		}
		if debug {
			cfg.Debug = true
		}
		if timeout > 0 {
			cfg.RequestTimeout = int(timeout.Seconds())
		}

		logPath := cfg.LogFile
		if logPath == "" {
			dir, err := config.Dir()
			if err != nil {
				return fmt.Errorf("failed to resolve config dir: %w", err)
			}
			logPath = filepath.Join(dir, "paperchat.log")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create config dir: %w", err)
			}
		}
		logger = logging.NewFileLogger(logPath, cfg.Debug)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive chat
		return runInteractiveChat(chatPapers, chatMaxSources)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend URL (default from config or PAPERCHAT_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (default from config)")

	rootCmd.Flags().Int64SliceVar(&chatPapers, "papers", nil, "Restrict questions to these paper ids")
	rootCmd.Flags().IntVar(&chatMaxSources, "max-sources", 0, "Citations requested per answer (0 = server default)")

	rootCmd.AddCommand(papersCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds the backend client from the resolved configuration.
func newClient() *api.Client {
	return api.NewClient(cfg.APIURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		api.WithLogger(logger),
	)
}
