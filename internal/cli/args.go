package cli

import (
	"errors"
	"strings"
)

// Args represents the top-level command structure
type Args struct {
	DBPath     *string `arg:"--db,env:CLIPQ_DB" help:"Database file (default ~/.config/clipq/clipq.db)"`
	ConfigPath *string `arg:"--config,env:CLIPQ_CONFIG" help:"Config file (default ~/.config/clipq/config.yaml)"`
	LogLevel   *string `arg:"--log-level" help:"Log level: debug, info, warn or error"`

	Serve    *ServeCmd    `arg:"subcommand:serve" help:"Watch the clipboard and serve the HTTP API"`
	UI       *UICmd       `arg:"subcommand:ui" help:"Browse the history in a terminal UI"`
	List     *ListCmd     `arg:"subcommand:list" help:"Print the history, newest first"`
	Add      *AddCmd      `arg:"subcommand:add" help:"Add text to the history"`
	AddImage *AddImageCmd `arg:"subcommand:add-image" help:"Add an image file to the history"`
	Capture  *CaptureCmd  `arg:"subcommand:capture" help:"Fetch an image URL and add it to the history"`
	Pin      *IDCmd       `arg:"subcommand:pin" help:"Protect an entry from eviction"`
	Unpin    *IDCmd       `arg:"subcommand:unpin" help:"Make a pinned entry evictable again"`
	Delete   *IDCmd       `arg:"subcommand:delete" help:"Delete an entry"`
	Copy     *IDCmd       `arg:"subcommand:copy" help:"Put an entry back on the clipboard"`
	Clear    *ClearCmd    `arg:"subcommand:clear" help:"Delete every entry, pinned ones included"`
	Config   *ConfigCmd   `arg:"subcommand:config" help:"Manage the config file"`
	Settings *SettingsCmd `arg:"subcommand:settings" help:"Manage user settings"`
}

// ServeCmd represents 'clipq serve'
type ServeCmd struct {
	NoWatch bool     `arg:"--no-watch" help:"Do not record clipboard changes"`
	Listen  *string  `arg:"--listen" help:"Listen address (overrides listen_addr)"`
	Origins []string `arg:"--allow-origin,separate" help:"Browser origin allowed to call the API (repeatable)"`
}

// UICmd represents 'clipq ui'
type UICmd struct {
	NoWatch bool `arg:"--no-watch" help:"Do not record clipboard changes while open"`
}

// ListCmd represents 'clipq list'
type ListCmd struct {
	JSON bool `arg:"--json" help:"Print entries as JSON"`
}

// AddCmd represents 'clipq add'
type AddCmd struct {
	Text []string `arg:"positional" help:"Text to add (reads stdin when omitted)"`
}

// AddImageCmd represents 'clipq add-image'
type AddImageCmd struct {
	File string `arg:"positional,required" help:"Image file"`
}

// CaptureCmd represents 'clipq capture'
type CaptureCmd struct {
	URL string `arg:"positional,required" help:"Image or video URL"`
	GIF bool   `arg:"--gif" help:"Record as an animated image"`
}

// IDCmd is the argument of the per-entry commands
type IDCmd struct {
	ID string `arg:"positional,required" help:"Entry id (see 'clipq list')"`
}

// ClearCmd represents 'clipq clear'
type ClearCmd struct {
	Force bool `arg:"-f,--force" help:"Skip confirmation prompt"`
}

// ConfigCmd represents 'clipq config'
type ConfigCmd struct {
	Get  *KeyCmd      `arg:"subcommand:get" help:"Print a config value"`
	Set  *KeyValueCmd `arg:"subcommand:set" help:"Change a config value"`
	List *ListKeysCmd `arg:"subcommand:list" help:"Print all config values"`
}

// SettingsCmd represents 'clipq settings'
type SettingsCmd struct {
	Get  *KeyCmd      `arg:"subcommand:get" help:"Print a setting"`
	Set  *KeyValueCmd `arg:"subcommand:set" help:"Change a setting"`
	List *ListKeysCmd `arg:"subcommand:list" help:"Print all settings"`
}

type KeyCmd struct {
	Key string `arg:"positional,required"`
}

type KeyValueCmd struct {
	Key   string `arg:"positional,required"`
	Value string `arg:"positional,required"`
}

type ListKeysCmd struct{}

// Description returns the program description
func (Args) Description() string {
	return "clipq - clipboard history with pinning and a local API"
}

// Version returns the program version
func (Args) Version() string {
	return "clipq 0.1.0"
}

// Epilogue returns additional help text
func (Args) Epilogue() string {
	return `Examples:
  clipq serve                      # record copies and serve http://127.0.0.1:7645
  clipq ui                         # browse, pin, copy and delete entries
  clipq list --json                # dump the history
  echo "hello" | clipq add         # add text from stdin
  clipq capture https://example.com/cat.gif --gif
  clipq settings set allow_duplicates true
  clipq config set history-limit 100`
}

// HasCommand reports whether a subcommand was given
func (args *Args) HasCommand() bool {
	return args.Serve != nil || args.UI != nil || args.List != nil || args.Add != nil ||
		args.AddImage != nil || args.Capture != nil || args.Pin != nil || args.Unpin != nil ||
		args.Delete != nil || args.Copy != nil || args.Clear != nil || args.Config != nil ||
		args.Settings != nil
}

// Validate performs validation on the parsed arguments
func (args *Args) Validate() error {
	if args.LogLevel != nil {
		switch strings.ToLower(*args.LogLevel) {
		case "debug", "info", "warn", "error":
		default:
			return errors.New("log level must be one of debug, info, warn, error")
		}
	}
	for _, cmd := range []*IDCmd{args.Pin, args.Unpin, args.Delete, args.Copy} {
		if cmd != nil && strings.TrimSpace(cmd.ID) == "" {
			return errors.New("entry id must not be empty")
		}
	}
	if args.Capture != nil && !strings.HasPrefix(args.Capture.URL, "http://") && !strings.HasPrefix(args.Capture.URL, "https://") {
		return errors.New("capture needs an http or https URL")
	}
	if args.Config != nil && args.Config.Get == nil && args.Config.Set == nil && args.Config.List == nil {
		return errors.New("config needs a subcommand: get, set or list")
	}
	if args.Settings != nil && args.Settings.Get == nil && args.Settings.Set == nil && args.Settings.List == nil {
		return errors.New("settings needs a subcommand: get, set or list")
	}
	return nil
}
