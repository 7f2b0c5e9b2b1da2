package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/dossier"
	"github.com/fwojciec/dossier/config"
	"github.com/fwojciec/dossier/edgar"
	"github.com/fwojciec/dossier/fs"
	"github.com/fwojciec/dossier/gemini"
	"github.com/fwojciec/dossier/goquery"
	"github.com/fwojciec/dossier/htmltomarkdown"
	dochttp "github.com/fwojciec/dossier/http"
	"github.com/fwojciec/dossier/ledger"
	"github.com/fwojciec/dossier/ratelimit"
	"github.com/fwojciec/dossier/readability"
	"github.com/fwojciec/dossier/rod"
	docslog "github.com/fwojciec/dossier/slog"
	"github.com/fwojciec/dossier/sqlite"
	"github.com/fwojciec/dossier/trafilatura"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, dossier.ErrorMessage(err))
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config is filled from defaults, the config file, then flags and
	// environment.
	Config *config.Config

	// SQLite database holding the entity cache and run history.
	DB *sqlite.DB

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Config: config.Default(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var firstErr error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.closers = nil
	if m.DB != nil {
		if err := m.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.DB = nil
	}
	return firstErr
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("dossier"),
		kong.Description("Build per-company SEC filing dossiers."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'dossier --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if err := m.configure(&cli.Globals); err != nil {
		return err
	}
	deps.Config = m.Config

	// Globals may precede the command, so args[0] is not the command name.
	cmd, _, _ := strings.Cut(kongCtx.Command(), " ")
	networked := cmd == "build" || cmd == "update"
	if networked {
		// Nothing that can reach the network is built from an invalid
		// configuration.
		if err := m.Config.Validate(); err != nil {
			fmt.Fprintln(stderr, "Hint: set SEC_USER_AGENT or pass --user-agent \"Name/1.0 (you@example.com)\"")
			return err
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err != nil {
		return dossier.Errorf(dossier.EINVALID, "invalid log level %q", cli.LogLevel)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := os.MkdirAll(m.Config.Storage.Root, 0755); err != nil {
		return fmt.Errorf("failed to create dossier root %q: %w", m.Config.Storage.Root, err)
	}
	m.DB = sqlite.NewDB(m.Config.Storage.DBPath())
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set DOSSIER_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.Config.Storage.DBPath(), err)
	}
	defer m.Close()

	root := fs.NewRoot(m.Config.Storage.Root)
	runs := sqlite.NewRunService(m.DB)
	deps.Runs = runs
	deps.Builder = &ledger.Builder{
		Manifests:    fs.NewManifestStore(root),
		Store:        fs.NewStore(root),
		Chunks:       fs.NewChunkIndex(root),
		Runs:         runs,
		Defaults:     m.Config.BuildRequest(""),
		MinChunkSize: m.Config.Build.MinChunkSize,
		Concurrency:  m.Config.Build.Concurrency,
	}

	if networked {
		if err := m.wireNetwork(deps.Builder, logger, stderr); err != nil {
			return err
		}
		if cmd == "build" && cli.Build.CountTokens {
			tokenCounter, err := gemini.NewTokenCounter(m.Config.Build.TokenizerModel)
			if err != nil {
				return fmt.Errorf("failed to create token counter: %w", err)
			}
			deps.Builder.TokenCounter = tokenCounter
		}
	}

	return kongCtx.Run(deps)
}

// configure layers the config file and then flags and environment over the
// defaults.
func (m *Main) configure(g *Globals) error {
	if g.Config != "" {
		if err := config.Decode(g.Config, m.Config); err != nil {
			return err
		}
	}
	if g.Root != "" {
		m.Config.Storage.Root = g.Root
	}
	if g.DB != "" {
		m.Config.Storage.DB = g.DB
	}
	if g.UserAgent != "" {
		m.Config.SEC.UserAgent = g.UserAgent
	}
	if g.RPS != 0 {
		m.Config.SEC.RPSLimit = g.RPS
	}
	if g.FetchMode != "" {
		m.Config.SEC.FetchMode = dossier.FetchMode(g.FetchMode)
	}
	if g.Timeout != 0 {
		m.Config.SEC.Timeout = g.Timeout
	}
	return nil
}

// wireNetwork connects the builder to the provider. Every fetcher shares
// one limiter so the combined request rate stays under the ceiling.
func (m *Main) wireNetwork(b *ledger.Builder, logger *slog.Logger, stderr io.Writer) error {
	sec := m.Config.SEC
	limiter := ratelimit.NewWindow(sec.RPSLimit, ratelimit.WithPacing())

	opts := []dochttp.Option{
		dochttp.WithTimeout(sec.Timeout),
		dochttp.WithLimiter(limiter),
		dochttp.WithRetryHook(func(url string, attempt int, wait time.Duration, err error) {
			logger.Warn("retrying request", "url", url, "attempt", attempt, "wait", wait, "err", err)
		}),
	}
	if sec.FetchMode == dossier.FetchBrowserFallback {
		browser, err := rod.NewFetcher(rod.WithUserAgent(sec.UserAgent), rod.WithFetchTimeout(sec.Timeout))
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for --fetch-mode browser_fallback")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		m.closers = append(m.closers, browser)
		opts = append(opts, dochttp.WithFallback(docslog.NewLoggingFetcher(browser, logger)))
	}

	httpFetcher, err := dochttp.NewFetcher(sec.UserAgent, opts...)
	if err != nil {
		return err
	}
	m.closers = append(m.closers, httpFetcher)
	fetcher := docslog.NewLoggingFetcher(httpFetcher, logger)

	client := edgar.NewClient(fetcher)
	b.Fetcher = fetcher
	b.RetryDelays = httpFetcher.RetryDelays()
	b.Resolver = &ledger.CachingResolver{
		Remote: docslog.NewLoggingResolver(client, logger),
		Cache:  sqlite.NewEntityCache(m.DB),
	}
	b.Lister = docslog.NewLoggingLister(client, logger)
	b.Now = time.Now

	cleaner := goquery.NewCleaner()
	b.Normalizer = &ledger.Normalizer{
		Light:     []dossier.Extractor{cleaner},
		Deep:      []dossier.Extractor{trafilatura.NewExtractor(), readability.NewExtractor(), cleaner},
		Converter: htmltomarkdown.NewConverter(),
	}
	return nil
}
