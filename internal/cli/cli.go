// Package cli wires the history engine, its stores and its collaborators
// into the clipq command set.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yiblet/clipq/internal/clipboard"
	"github.com/yiblet/clipq/internal/clipboard/sysboard"
	"github.com/yiblet/clipq/internal/config"
	"github.com/yiblet/clipq/internal/datadir"
	"github.com/yiblet/clipq/internal/media"
	"github.com/yiblet/clipq/internal/queue"
	"github.com/yiblet/clipq/internal/recovery"
	"github.com/yiblet/clipq/internal/router"
	"github.com/yiblet/clipq/internal/server"
	"github.com/yiblet/clipq/internal/store"
	"github.com/yiblet/clipq/internal/store/dbstore"
	"github.com/yiblet/clipq/internal/thumbnail"
	"github.com/yiblet/clipq/internal/tui"
)

// CLI handles the command-line interface
type CLI struct {
	config   *config.Config
	configs  *config.ConfigManager
	db       *dbstore.SQLiteStore
	settings *config.Settings
	engine   *queue.Engine
	router   *router.Router
	hub      *server.Hub
	sequence *recovery.Sequencer
	thumbs   *thumbnail.Generator
	fetcher  *media.Fetcher
	logger   *slog.Logger

	// openClipboard is replaced in tests
	openClipboard func() (clipboard.Clipboard, clipboard.Watcher, error)

	in  io.Reader
	out io.Writer
}

// New resolves the config file and database from args and builds the engine.
func New(args *Args) (*CLI, error) {
	dir, err := datadir.New()
	if err != nil {
		return nil, err
	}
	return newWithDir(args, dir, os.Stderr)
}

func newWithDir(args *Args, dir *datadir.Dir, logOut io.Writer) (*CLI, error) {
	configs := config.NewConfigManagerWithPath(dir.ConfigPath())
	if args.ConfigPath != nil {
		configs = config.NewConfigManagerWithPath(*args.ConfigPath)
	}
	cfg, err := configs.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if args.LogLevel != nil {
		level = *args.LogLevel
	}
	logger := newLogger(logOut, level)

	dbPath := cfg.DBPath
	if args.DBPath != nil {
		dbPath = *args.DBPath
	}
	if dbPath, err = dir.DBPath(dbPath); err != nil {
		return nil, err
	}
	db, err := dbstore.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	settings := config.NewSettings(db.Settings(), logger)
	hub := server.NewHub(logger)
	engine := queue.New(db.History(), queue.Options{
		Capacity:          cfg.HistoryLimit,
		SuppressionWindow: cfg.Window(),
		Policy:            settings,
		Notifier: queue.MultiNotifier{
			hub,
			queue.NotifierFunc(func(count int) {
				logger.Debug("queue count changed", "count", count)
			}),
		},
		Logger: logger,
	})

	c := &CLI{
		config:   cfg,
		configs:  configs,
		db:       db,
		settings: settings,
		engine:   engine,
		router:   router.New(engine, settings, logger),
		hub:      hub,
		sequence: recovery.New(engine, logger),
		thumbs:   thumbnail.New(cfg.ThumbnailSize),
		fetcher:  media.NewFetcher(),
		logger:   logger,
		in:       os.Stdin,
		out:      os.Stdout,
	}
	c.openClipboard = c.detectClipboard
	logger.Debug("clipq initialized", "db", db.Path(), "config", configs.GetConfigPath())
	return c, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// Close releases the database.
func (c *CLI) Close() error {
	c.hub.Close()
	return c.db.Close()
}

// Execute runs the command selected by args
func (c *CLI) Execute(ctx context.Context, args *Args) error {
	if err := args.Validate(); err != nil {
		return err
	}

	// config edits the yaml file only and does not need the history
	if args.Config != nil {
		return c.executeConfig(args.Config)
	}

	c.sequence.Start(ctx)

	switch {
	case args.Serve != nil:
		return c.executeServe(ctx, args.Serve)
	case args.List != nil:
		return c.executeList(ctx, args.List)
	case args.Add != nil:
		return c.executeAdd(ctx, args.Add)
	case args.AddImage != nil:
		return c.executeAddImage(ctx, args.AddImage)
	case args.Capture != nil:
		return c.executeCapture(ctx, args.Capture)
	case args.Pin != nil:
		return c.executeEntryOp(ctx, router.PinItem{ID: args.Pin.ID}, "Pinned")
	case args.Unpin != nil:
		return c.executeEntryOp(ctx, router.UnpinItem{ID: args.Unpin.ID}, "Unpinned")
	case args.Delete != nil:
		return c.executeEntryOp(ctx, router.DeleteItem{ID: args.Delete.ID}, "Deleted")
	case args.Copy != nil:
		return c.executeCopy(ctx, args.Copy)
	case args.Clear != nil:
		return c.executeClear(ctx, args.Clear)
	case args.Settings != nil:
		return c.executeSettings(ctx, args.Settings)
	case args.UI != nil:
		return c.executeUI(ctx, args.UI)
	default:
		return c.executeUI(ctx, &UICmd{})
	}
}

// dispatch runs req and turns a failed response into an error
func (c *CLI) dispatch(ctx context.Context, req router.Request) (any, error) {
	resp := c.router.Dispatch(ctx, req)
	if !resp.Success {
		return nil, fmt.Errorf("%s failed: %s (%s)", req.Operation(), resp.Error.Message, resp.Error.Code)
	}
	return resp.Data, nil
}

func (c *CLI) history(ctx context.Context) ([]*store.HistoryEntry, error) {
	data, err := c.dispatch(ctx, router.GetQueue{})
	if err != nil {
		return nil, err
	}
	entries, _ := data.([]*store.HistoryEntry)
	return entries, nil
}

// executeServe records clipboard changes and serves the HTTP API until ctx
// is canceled. SIGHUP reloads the history from the store.
func (c *CLI) executeServe(ctx context.Context, cmd *ServeCmd) error {
	addr := c.config.ListenAddr
	if cmd.Listen != nil {
		addr = *cmd.Listen
	}

	if !cmd.NoWatch {
		if _, err := c.startWatcher(ctx); err != nil {
			c.logger.Warn("clipboard watching disabled", "error", err)
		}
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				c.logger.Info("reloading history")
				c.sequence.Restart(ctx)
			}
		}
	}()

	srv := server.New(c.router, c.hub, server.Config{Addr: addr, AllowedOrigins: cmd.Origins}, c.logger)
	fmt.Fprintf(c.out, "Serving on http://%s\n", addr)
	return srv.ListenAndServe(ctx)
}

// executeUI opens the terminal browser
func (c *CLI) executeUI(ctx context.Context, cmd *UICmd) error {
	var copier tui.Copier
	if cmd.NoWatch {
		if board, _, err := c.openClipboard(); err == nil {
			copier = clipboard.NewCopier(board, c.router, c.thumbs, c.logger)
		}
	} else if cp, err := c.startWatcher(ctx); err == nil {
		copier = cp
	} else {
		c.logger.Warn("clipboard watching disabled", "error", err)
	}

	model := tui.NewAppModel(ctx, c.router, copier)
	p := tea.NewProgram(&model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// startWatcher records clipboard changes in the background and returns a
// copier writing to the same clipboard
func (c *CLI) startWatcher(ctx context.Context) (*clipboard.Copier, error) {
	board, watcher, err := c.openClipboard()
	if err != nil {
		return nil, err
	}
	bridge := clipboard.NewBridge(c.router, c.thumbs, c.logger)
	go bridge.Run(ctx, watcher)
	return clipboard.NewCopier(board, c.router, c.thumbs, c.logger), nil
}

// detectClipboard prefers the native clipboard and falls back to polling the
// platform clipboard commands for text
func (c *CLI) detectClipboard() (clipboard.Clipboard, clipboard.Watcher, error) {
	native, err := clipboard.NewNative()
	if err == nil {
		return native, native, nil
	}
	c.logger.Debug("native clipboard unavailable", "error", err)

	sys := sysboard.New()
	if !sys.IsSupported() {
		return nil, nil, errors.New("no clipboard available")
	}
	return sys, clipboard.NewPoller(sys, c.logger), nil
}

// executeList prints the history
func (c *CLI) executeList(ctx context.Context, cmd *ListCmd) error {
	entries, err := c.history(ctx)
	if err != nil {
		return err
	}

	if cmd.JSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(c.out, "History is empty.")
		return nil
	}
	for i, e := range entries {
		pin := " "
		if e.Pinned {
			pin = "*"
		}
		fmt.Fprintf(c.out, "%2d %s %s %s\n", i, pin, e.ID, queue.Preview(e, 60))
	}
	return nil
}

// executeAdd adds text from the arguments or stdin
func (c *CLI) executeAdd(ctx context.Context, cmd *AddCmd) error {
	text := strings.Join(cmd.Text, " ")
	if len(cmd.Text) == 0 {
		data, err := io.ReadAll(c.in)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	return c.record(ctx, router.AddText{Content: text})
}

// executeAddImage adds an image file as a thumbnail
func (c *CLI) executeAddImage(ctx context.Context, cmd *AddImageCmd) error {
	data, err := os.ReadFile(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	thumb, err := c.thumbs.DataURL(data)
	if err != nil {
		return err
	}
	kind := store.KindImage
	if http.DetectContentType(data) == "image/gif" {
		kind = store.KindGIF
	}
	return c.record(ctx, router.AddImage{Thumbnail: thumb, Kind: kind, Source: store.OriginManual})
}

// executeCapture fetches a URL and records it as an image
func (c *CLI) executeCapture(ctx context.Context, cmd *CaptureCmd) error {
	m, err := c.fetcher.Fetch(ctx, cmd.URL)
	if err != nil {
		return err
	}
	thumb, err := c.thumbs.DataURL(m.Data)
	if err != nil {
		return fmt.Errorf("failed to build thumbnail for %s: %w", m.ContentType, err)
	}
	kind := store.KindImage
	if cmd.GIF || m.Animated() {
		kind = store.KindGIF
	}
	return c.record(ctx, router.CaptureImage{Thumbnail: thumb, OriginalURL: cmd.URL, Kind: kind})
}

// record dispatches an add and reports whether a new entry appeared
func (c *CLI) record(ctx context.Context, req router.Request) error {
	before := c.newestID()
	if _, err := c.dispatch(ctx, req); err != nil {
		return err
	}
	entries := c.engine.Queue()
	if len(entries) == 0 || entries[0].ID == before {
		fmt.Fprintln(c.out, "Skipped: empty or duplicate content")
		return nil
	}
	fmt.Fprintf(c.out, "Added %s: %s\n", entries[0].ID, queue.Preview(entries[0], 60))
	return nil
}

func (c *CLI) newestID() string {
	if q := c.engine.Queue(); len(q) > 0 {
		return q[0].ID
	}
	return ""
}

// executeEntryOp runs a per-entry request after checking the id exists
func (c *CLI) executeEntryOp(ctx context.Context, req router.Request, done string) error {
	id := entryID(req)
	if _, ok := c.engine.Get(id); !ok {
		return fmt.Errorf("no entry with id %s", id)
	}
	if _, err := c.dispatch(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s\n", done, id)
	return nil
}

func entryID(req router.Request) string {
	switch r := req.(type) {
	case router.PinItem:
		return r.ID
	case router.UnpinItem:
		return r.ID
	case router.DeleteItem:
		return r.ID
	}
	return ""
}

// executeCopy puts an entry on the clipboard
func (c *CLI) executeCopy(ctx context.Context, cmd *IDCmd) error {
	entry, ok := c.engine.Get(cmd.ID)
	if !ok {
		return fmt.Errorf("no entry with id %s", cmd.ID)
	}
	board, _, err := c.openClipboard()
	if err != nil {
		return err
	}
	if err := clipboard.NewCopier(board, c.router, c.thumbs, c.logger).Copy(ctx, entry); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Copied to clipboard: %s\n", queue.Preview(entry, 60))
	return nil
}

// executeClear empties the history after confirmation
func (c *CLI) executeClear(ctx context.Context, cmd *ClearCmd) error {
	count := c.engine.Len()
	if count == 0 {
		fmt.Fprintln(c.out, "History is already empty.")
		return nil
	}

	if !cmd.Force {
		fmt.Fprintf(c.out, "This will delete %d entries, pinned ones included. Continue? [y/N]: ", count)
		response, _ := bufio.NewReader(c.in).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(c.out, "Cancelled.")
			return nil
		}
	}

	if _, err := c.dispatch(ctx, router.ClearAll{}); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Cleared %d entries.\n", count)
	return nil
}

// executeConfig handles 'clipq config'
func (c *CLI) executeConfig(cmd *ConfigCmd) error {
	switch {
	case cmd.Get != nil:
		value, err := c.configs.Get(cmd.Get.Key)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, value)
	case cmd.Set != nil:
		if err := c.configs.Update(cmd.Set.Key, cmd.Set.Value); err != nil {
			return fmt.Errorf("failed to set config value: %w", err)
		}
		fmt.Fprintf(c.out, "Set %s = %s (takes effect on restart)\n", cmd.Set.Key, cmd.Set.Value)
	case cmd.List != nil:
		values, err := c.configs.List()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Configuration (%s):\n", c.configs.GetConfigPath())
		printValues(c.out, values)
	}
	return nil
}

// executeSettings handles 'clipq settings'. Changes go through the router
// so they apply to the running engine at once.
func (c *CLI) executeSettings(ctx context.Context, cmd *SettingsCmd) error {
	switch {
	case cmd.Get != nil:
		value, err := c.settings.Get(cmd.Get.Key)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, value)
	case cmd.Set != nil:
		if _, err := c.dispatch(ctx, router.SetSetting{Key: cmd.Set.Key, Value: cmd.Set.Value}); err != nil {
			return err
		}
		value, _ := c.settings.Get(cmd.Set.Key)
		fmt.Fprintf(c.out, "Set %s = %s\n", cmd.Set.Key, value)
	case cmd.List != nil:
		values, err := c.settings.List()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Settings:")
		printValues(c.out, values)
	}
	return nil
}

func printValues(w io.Writer, values map[string]string) {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(w, "  %s = %s\n", key, values[key])
	}
}
