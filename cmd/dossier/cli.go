package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/dossier"
	"github.com/fwojciec/dossier/config"
	"github.com/fwojciec/dossier/ledger"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
	Builder *ledger.Builder
	Runs    dossier.RunService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Globals

	Build   BuildCmd   `cmd:"" help:"Build or refresh a company dossier"`
	Update  UpdateCmd  `cmd:"" help:"Rebuild a dossier with its previous configuration"`
	Status  StatusCmd  `cmd:"" help:"Show a dossier summary without network access"`
	List    ListCmd    `cmd:"" help:"List a dossier's artifacts"`
	History HistoryCmd `cmd:"" help:"Show previous runs for a company"`
}

// Globals are flags shared by every command. Unset flags fall back to the
// config file, then to defaults.
type Globals struct {
	Config    string        `name:"config" env:"DOSSIER_CONFIG" type:"path" help:"YAML config file"`
	Root      string        `env:"DOSSIER_ROOT" help:"Dossier root directory (default ./dossiers)"`
	DB        string        `name:"db" env:"DOSSIER_DB" help:"SQLite database path (default <root>/dossier.db)"`
	UserAgent string        `name:"user-agent" env:"SEC_USER_AGENT" help:"Contact header, e.g. \"Name/1.0 (you@example.com)\""`
	RPS       int           `name:"rps" env:"SEC_RPS_LIMIT" help:"Requests per second (1-10, default 3)"`
	FetchMode string        `name:"fetch-mode" help:"Transport: http or browser_fallback"`
	Timeout   time.Duration `help:"Per-request timeout (default 30s)"`
	LogLevel  string        `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level: debug, info, warn or error"`
}

// BuildCmd is the "build" subcommand.
type BuildCmd struct {
	Ticker            string   `arg:"" help:"Ticker symbol or CIK"`
	Years             int      `help:"Years of filings to include"`
	Forms             []string `help:"Form types to include (repeatable)"`
	MaxFilingsPerForm int      `name:"max-filings-per-form" help:"Maximum filings per form"`
	ForceRebuild      bool     `name:"force-rebuild" short:"f" help:"Download everything again"`
	Mode              string   `enum:"links_only,full," default:"" help:"Materialization mode: links_only or full"`
	Normalize         string   `enum:"none,light,deep," default:"" help:"Normalization level: none, light or deep"`
	XBRL              bool     `name:"xbrl" help:"Include XBRL company facts"`
	RefreshEntity     bool     `name:"refresh-entity" help:"Resolve the ticker again instead of using the cache"`
	CountTokens       bool     `name:"count-tokens" help:"Estimate tokens of the chunk index"`
	JSON              bool     `name:"json" help:"Print the result as JSON"`
}

// UpdateCmd is the "update" subcommand.
type UpdateCmd struct {
	Ticker string `arg:"" help:"Ticker symbol or CIK"`
	Mode   string `enum:"links_only,full," default:"" help:"Override the stored materialization mode"`
	JSON   bool   `name:"json" help:"Print the result as JSON"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct {
	Ticker string `arg:"" help:"Ticker symbol"`
	JSON   bool   `name:"json" help:"Print the report as JSON"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Ticker string `arg:"" help:"Ticker symbol"`
	Form   string `help:"Only this form type"`
	Since  string `help:"Only filings on or after YYYY-MM-DD"`
	JSON   bool   `name:"json" help:"Print artifacts as JSON"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Ticker string `arg:"" help:"Ticker symbol"`
	Limit  int    `short:"n" default:"10" help:"Number of runs to show"`
}
