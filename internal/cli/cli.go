package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmodel/pkg/buildinfo"
	"github.com/matzehuels/flowmodel/pkg/cache"
	"github.com/matzehuels/flowmodel/pkg/config"
	"github.com/matzehuels/flowmodel/pkg/editor"
	fio "github.com/matzehuels/flowmodel/pkg/io"
	"github.com/matzehuels/flowmodel/pkg/observability"
	"github.com/matzehuels/flowmodel/pkg/render/nodelink"
	"github.com/matzehuels/flowmodel/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "flowmodel"

	// storeTimeout bounds a single document store round trip.
	storeTimeout = 30 * time.Second
)

// Log levels accepted by [New].
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

	logOut     io.Writer
	configPath string
	verbose    bool
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), logOut: w}
}

// Execute runs the command line args and returns the process exit code:
// 0 on success, 130 when ctx was cancelled and 1 on any other error.
func (c *CLI) Execute(ctx context.Context, args []string) int {
	root := c.RootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		printError("%v", err)
		return 1
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	version, _, _ := buildinfo.Info()
	root := &cobra.Command{
		Use:           appName,
		Short:         "Flowmodel edits process diagrams from the terminal",
		Long:          `Flowmodel is a diagram editing core with a command line: validate and convert diagram documents, apply scripted edits, edit interactively and serve diagrams over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.Logger.SetLevel(LogDebug)
			}
			cmd.SetContext(log.WithContext(cmd.Context(), c.Logger))
			if cmd.Annotations["config"] == "skip" {
				return nil
			}
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/flowmodel/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration once and applies its log level unless
// --verbose already raised it.
func (c *CLI) loadConfig() error {
	if c.config != nil {
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil && c.Logger.GetLevel() != LogDebug {
		c.Logger.SetLevel(lvl)
	}
	if c.Logger.GetLevel() == LogDebug {
		observability.SetCommandHooks(observability.NewLogHooks(c.Logger))
		observability.SetImportHooks(observability.NewLogHooks(c.Logger))
		observability.SetCacheHooks(observability.NewLogHooks(c.Logger))
	}
	c.config = &cfg
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newEditor builds an editor from the configuration and imports doc.
func (c *CLI) newEditor(doc *fio.Document) (*editor.Editor, []string, error) {
	cfg, err := c.config.EditorConfig()
	if err != nil {
		return nil, nil, err
	}
	ed, err := editor.New(cfg, editor.WithLogger(c.Logger))
	if err != nil {
		return nil, nil, err
	}
	warnings, err := ed.Import(doc)
	if err != nil {
		return nil, nil, err
	}
	return ed, warnings, nil
}

// openDocument reads a document from a file, or from the store when the
// argument starts with "store:".
func (c *CLI) openDocument(ctx context.Context, arg string) (*fio.Document, error) {
	name, ok := storeName(arg)
	if !ok {
		return fio.Import(arg)
	}
	s, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.Get(ctx, name)
}

// saveDocument writes doc back to a file or to the store.
func (c *CLI) saveDocument(ctx context.Context, arg string, doc *fio.Document) error {
	name, ok := storeName(arg)
	if !ok {
		return fio.Export(doc, arg)
	}
	s, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.Put(ctx, name, doc)
}

func storeName(arg string) (string, bool) {
	const prefix = "store:"
	if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
		return arg[len(prefix):], true
	}
	return "", false
}

func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, c.config.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.config.Store.Backend, err)
	}
	return s, nil
}

// newRenderer creates a renderer over the configured cache. A cache that
// cannot be opened degrades to rendering without one.
func (c *CLI) newRenderer(ctx context.Context, noCache bool) (*nodelink.Renderer, func()) {
	var rc cache.Cache = cache.NewNullCache()
	if !noCache {
		opened, err := c.config.OpenCache(ctx)
		if err != nil {
			c.Logger.Warn("cache unavailable, rendering without it", "err", err)
		} else {
			rc = opened
		}
	}
	r := nodelink.NewRenderer(rc, nodelink.WithTTL(c.config.Cache.TTL), nodelink.WithLogger(c.Logger))
	return r, func() { _ = rc.Close() }
}
