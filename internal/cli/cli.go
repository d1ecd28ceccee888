// Package cli implements the platekit command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/platesouq/platekit/pkg/assets"
	"github.com/platesouq/platekit/pkg/buildinfo"
	"github.com/platesouq/platekit/pkg/cache"
	"github.com/platesouq/platekit/pkg/pipeline"
	"github.com/platesouq/platekit/pkg/plate"
	"github.com/platesouq/platekit/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "platekit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Storage flags, shared by commands that publish artifacts.
	storeDir string
	baseURL  string
	mongoURI string
	mongoDB  string

	// Cache flags.
	noCache   bool
	redisAddr string

	// Template flags.
	templatesPath string
	anchorsPath   string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "platekit",
		Short:        "Platekit renders plate artwork and marketing previews",
		Long:         `Platekit is a CLI tool for generating vehicle plate artwork and full marketing-preview scenes for classified listings, with gold price and contact overlays.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.templatesPath, "templates", "", "template registry TOML file")
	root.PersistentFlags().StringVar(&c.anchorsPath, "anchors", "", "anchor table TOML file (default: bundled)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the artifact cache")
	root.PersistentFlags().StringVar(&c.redisAddr, "redis", "", "redis address for the artifact cache (default: file cache)")

	// Register all subcommands
	root.AddCommand(c.plateCommand())
	root.AddCommand(c.sceneCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cch, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}

	loader, err := c.newTemplateLoader()
	if err != nil {
		return nil, err
	}

	store, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}

	return pipeline.NewRunner(cch, nil, loader, store, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	if c.redisAddr != "" {
		return cache.NewRedisCache(ctx, c.redisAddr)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) newTemplateLoader() (*plate.Loader, error) {
	registry := plate.NewRegistry()
	if c.templatesPath != "" {
		var err error
		registry, err = plate.LoadRegistry(c.templatesPath)
		if err != nil {
			return nil, err
		}
	}
	return plate.NewLoader(registry, assets.NewLoader()), nil
}

// anchors loads the anchor table from the --anchors flag, falling back to
// the bundled table.
func (c *CLI) anchors() (plate.AnchorTable, error) {
	if c.anchorsPath == "" {
		return plate.DefaultAnchors(), nil
	}
	return plate.LoadAnchors(c.anchorsPath)
}

// newStore builds the artifact store from flags. No storage flags means no
// store (uploads disabled).
func (c *CLI) newStore(ctx context.Context) (storage.Store, error) {
	if c.mongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(c.mongoURI))
		if err != nil {
			return nil, err
		}
		db := c.mongoDB
		if db == "" {
			db = appName
		}
		return storage.NewGridFSStore(client.Database(db), c.baseURL)
	}
	if c.storeDir != "" {
		return storage.NewLocalStore(c.storeDir, c.baseURL)
	}
	return nil, nil
}

// addStoreFlags registers upload destination flags on cmd.
func (c *CLI) addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.storeDir, "store-dir", "", "local store root for uploaded artifacts")
	cmd.Flags().StringVar(&c.baseURL, "base-url", "", "public base URL for uploaded artifacts")
	cmd.Flags().StringVar(&c.mongoURI, "mongo-uri", "", "MongoDB URI for GridFS artifact storage")
	cmd.Flags().StringVar(&c.mongoDB, "mongo-db", "", "MongoDB database name (default: platekit)")
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/platekit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
