package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/byte4ever/ticktock"
	"github.com/byte4ever/ticktock/filestore"
	"github.com/byte4ever/ticktock/internal/logfields"
	"github.com/byte4ever/ticktock/otter"
	"github.com/byte4ever/ticktock/ristretto"
	"github.com/byte4ever/ticktock/sqlite"
)

// memoryStore selects the in-process store.
const memoryStore = ":memory:"

// Global context passed to subcommands.
type Global struct {
	Out io.Writer
	In  io.Reader
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path (JSON or YAML)" env:"TICKTOCK_CONFIG"`
	Store   string `short:"s" help:"State location: *.db for SQLite, :memory:, or a JSON file" env:"TICKTOCK_STORE"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run       RunCmd       `cmd:"" help:"Run the clock suite: ring alarms and serve status"`
	Alarm     AlarmCmd     `cmd:"" help:"Manage alarms"`
	City      CityCmd      `cmd:"" help:"Manage world clock cities"`
	Bedtime   BedtimeCmd   `cmd:"" help:"Manage the bedtime plan"`
	Timer     TimerCmd     `cmd:"" help:"Run a countdown in the foreground"`
	Stopwatch StopwatchCmd `cmd:"" help:"Run a stopwatch in the foreground"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	ringStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}

	return g.Out
}

func (g *Global) in() io.Reader {
	if g == nil || g.In == nil {
		return os.Stdin
	}

	return g.In
}

// loadConfig reads the configuration file, or returns an empty one when no
// file is configured.
func (c *CLI) loadConfig() (*ticktock.Config, error) {
	if c.Config == "" {
		return &ticktock.Config{}, nil
	}

	cfg, err := ticktock.LoadConfig(expandHome(c.Config))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// storePath resolves the store location: flag, then config, then the user
// config directory.
func (c *CLI) storePath(cfg *ticktock.Config) string {
	if c.Store != "" {
		return expandHome(c.Store)
	}

	if p := cfg.StorePath(); p != "" {
		return expandHome(p)
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}

	return filepath.Join(dir, "ticktock", "state.json")
}

// openStore opens the store backend selected by path.
func openStore(path string) (ticktock.Store, func() error, error) {
	nop := func() error { return nil }

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case path == memoryStore:
		return ticktock.NewMemoryStore(), nop, nil

	case ext == ".db" || ext == ".sqlite":
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open store %s: %w", path, err)
		}

		return store, store.Close, nil

	default:
		store, err := filestore.OpenFile(path, filestore.WithLogger(slog.Default()))
		if err != nil {
			return nil, nil, fmt.Errorf("open store %s: %w", path, err)
		}

		return store, nop, nil
	}
}

// suiteOptions turns the configuration into suite options, including the
// time zone cache.
func suiteOptions(cfg *ticktock.Config, hooks *ticktock.Hooks) ([]ticktock.Option, error) {
	opts, err := ticktock.BuildOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("build options: %w", err)
	}

	cacheCfg, err := cfg.CacheConfig()
	if err != nil {
		return nil, fmt.Errorf("build options: %w", err)
	}

	var cacheOpt ticktock.Option

	switch cacheCfg.Adapter {
	case ticktock.CacheAdapterOtter:
		cacheOpt, err = otter.LocationOption(cacheCfg)
	case ticktock.CacheAdapterRistretto:
		cacheOpt, err = ristretto.LocationOption(cacheCfg)
	}

	if err != nil {
		return nil, fmt.Errorf("location cache: %w", err)
	}

	if cacheOpt != nil {
		opts = append(opts, cacheOpt)
	}

	return append(opts,
		ticktock.WithLogger(slog.Default()),
		ticktock.WithHooks(hooks),
	), nil
}

// session is an opened store plus the configuration, shared by the short
// lived subcommands.
type session struct {
	cfg   *ticktock.Config
	store ticktock.Store
	opts  []ticktock.Option
	close func() error
}

func (c *CLI) openSession(hooks *ticktock.Hooks) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	path := c.storePath(cfg)

	store, closeFn, err := openStore(path)
	if err != nil {
		return nil, err
	}

	opts, err := suiteOptions(cfg, hooks)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	slog.Debug("Store opened", logfields.Path(path))

	return &session{cfg: cfg, store: store, opts: opts, close: closeFn}, nil
}

func (s *session) Close() {
	if err := s.close(); err != nil {
		slog.Warn("Failed to close store", logfields.Error(err))
	}
}

// terminalNotifier rings in the terminal: a styled line and the bell.
type terminalNotifier struct {
	out io.Writer
}

func (n terminalNotifier) Notify(_ context.Context, message string) error {
	_, err := fmt.Fprintln(n.out, ringStyle.Render(message))
	return err
}

func (n terminalNotifier) PlaySound(context.Context) error {
	_, err := io.WriteString(n.out, "\a")
	return err
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// parseIndex converts a 1-based index argument to the 0-based index the
// registries use.
func parseIndex(n int) int {
	return n - 1
}
