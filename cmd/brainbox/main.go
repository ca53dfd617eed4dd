package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/umunnaprecious2-prog/brain-box/internal/bot"
	"github.com/umunnaprecious2-prog/brain-box/internal/config"
	"github.com/umunnaprecious2-prog/brain-box/internal/database"
	"github.com/umunnaprecious2-prog/brain-box/internal/detect"
	"github.com/umunnaprecious2-prog/brain-box/internal/pipeline"
	"github.com/umunnaprecious2-prog/brain-box/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "brainbox",
	Short:   "Personal knowledge base with a Telegram front door",
	Long:    "Brain Box receives documents, images, links, and notes over Telegram, classifies them with an LLM, and archives selected content to a GitHub repository.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Secrets come from the environment; a local .env is optional.
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(publishCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("brainbox", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/brainbox/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set your Telegram user ID, GitHub repo, and LLM provider.")
		fmt.Println("Secrets (TELEGRAM_BOT_TOKEN, GITHUB_TOKEN, OPENAI_API_KEY) go in the environment or a .env file.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Content:")
		fmt.Printf("  Total items: %d\n", stats.TotalItems)
		for _, category := range detect.Categories {
			fmt.Printf("  %s: %d\n", category, stats.ItemsByType[category])
		}
		fmt.Println("\nGitHub:")
		fmt.Printf("  Published: %d\n", stats.PublishedItems)
		fmt.Printf("  Decisions recorded: %d\n", stats.TotalDecisions)

		fmt.Println("\nConfiguration:")
		fmt.Printf("  Telegram token: %s\n", configured(cfg.TelegramToken()))
		fmt.Printf("  GitHub token: %s\n", configured(cfg.GitHubToken()))
		fmt.Printf("  GitHub repo: %s\n", orUnset(cfg.GitHub.Repo))
		fmt.Printf("  LLM provider: %s\n", orUnset(cfg.LLM.Provider))
		return nil
	},
}

// --- serve command ---

var (
	servePort int
	webOnly   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the local web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		if webOnly {
			fmt.Printf("Starting web UI at http://localhost:%d\n", port)
			return server.Serve(db, port)
		}

		if cfg.TelegramToken() == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set (see 'brainbox init')")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			fmt.Printf("Web UI at http://localhost:%d\n", port)
			if err := server.Serve(db, port); err != nil {
				log.Printf("Web server stopped: %v", err)
			}
		}()

		pipe := pipeline.New(cfg, db)
		b := bot.New(cfg, db, pipe)
		if err := b.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		fmt.Println("\nShutting down.")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Web UI port (default from config)")
	serveCmd.Flags().BoolVar(&webOnly, "web-only", false, "Run only the web UI, no Telegram bot")
}

// --- list command ---

var listCmd = &cobra.Command{
	Use:   "list [type]",
	Short: "List stored items, optionally by type (images, documents, links, notes)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var items []database.ContentItem
		if len(args) == 0 {
			items, err = db.GetRecentItems(50)
		} else {
			if !detect.ValidCategory(args[0]) {
				return fmt.Errorf("invalid type %q (images, documents, links, notes)", args[0])
			}
			items, err = db.ListByCategory(args[0])
		}
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("No items found.")
			return nil
		}
		printItems(items)
		return nil
	},
}

// --- search command ---

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search items by keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.SearchItems(args[0])
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Printf("No results for %q.\n", args[0])
			return nil
		}
		printItems(items)
		return nil
	},
}

// --- publish command ---

var publishCmd = &cobra.Command{
	Use:   "publish [id]",
	Short: "Publish an item to GitHub (latest unpublished when no ID given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var item *database.ContentItem
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item ID: %s", args[0])
			}
			item, err = db.GetItemByID(id)
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("item %d not found", id)
			}
		} else {
			items, err := db.GetUnpublished(1)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println("No unpublished items found.")
				return nil
			}
			item = &items[0]
		}

		pipe := pipeline.New(cfg, db)
		url, err := pipe.PublishItem(context.Background(), item)
		if err != nil {
			return fmt.Errorf("publishing item %d: %w", item.ID, err)
		}
		fmt.Printf("Published: %s\n", url)
		return nil
	},
}

func printItems(items []database.ContentItem) {
	for _, item := range items {
		status := " "
		if item.GitHubPublished {
			status = "*"
		}
		fmt.Printf("[%d] %s [%s] %s\n", item.ID, status, item.ContentType, item.OriginalName)
		if item.Summary != nil && *item.Summary != "" {
			fmt.Printf("      %s\n", *item.Summary)
		}
	}
}

func configured(secret string) string {
	if secret == "" {
		return "not set"
	}
	return "configured"
}

func orUnset(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "brainbox.db")
	return database.Open(dbPath)
}
