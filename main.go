// arbkit extracts string literals from Dart code into ARB resource files
// and keeps the translations in sync with AI translation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/config"
	"github.com/minios-linux/arbkit/editor"
	"github.com/minios-linux/arbkit/i18n"
	"github.com/minios-linux/arbkit/lockfile"
	"github.com/minios-linux/arbkit/settings"
	"github.com/minios-linux/arbkit/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	infoTag    = color.New(color.FgBlue).Sprint("[INFO]")
	successTag = color.New(color.FgGreen).Sprint("[OK]")
	warnTag    = color.New(color.FgYellow, color.Bold).Sprint("[WARN]")
	errorTag   = color.New(color.FgRed).Sprint("[ERROR]")

	heading = color.New(color.FgBlue, color.Bold).SprintFunc()
	good    = color.New(color.FgGreen).SprintFunc()
	bad     = color.New(color.FgRed).SprintFunc()
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, infoTag+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, successTag+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, warnTag+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, errorTag+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	verbose    bool
	apiKeyFlag string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "arbkit",
		Short: "Extract Dart strings into ARB files and translate them",
		Long: `arbkit moves string literals from Dart code into Flutter ARB resource
files and translates them into every target language with Gemini.

Commands:
  extract     Extract a string literal into the source ARB file
  translate   Translate one existing key into the target languages
  sync        Translate every new or changed key
  langs       List target languages, or add one
  suggest     Show the placeholders and key suggested for a text
  status      Show project configuration and translation statistics
  init        Write .arbkit.yaml with the current settings
  auth        Manage the Gemini API key

Configuration is read from l10n.yaml, .arbkit.yaml, .env and ARBKIT_*
environment variables, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")
	root.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Gemini API key (overrides environment and stored key)")

	root.AddCommand(
		newExtractCmd(),
		newTranslateCmd(),
		newSyncCmd(),
		newLangsCmd(),
		newSuggestCmd(),
		newStatusCmd(),
		newInitCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logError("%v", err)
		stop()
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("arbkit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Shared wiring
// ---------------------------------------------------------------------------

// newLogger returns the structured logger handed to the library packages.
// The [INFO]/[OK] lines above are for people; this one is for diagnostics.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// loadConfig resolves and validates the configuration for --root.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return cfg, err
	}
	if apiKeyFlag != "" {
		cfg.APIKey = apiKeyFlag
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", config.FileName, err)
	}
	return cfg, nil
}

// newProvider builds the Gemini client for cfg, or returns nil and a
// reason when translation is not possible.
func newProvider(cfg config.Config, log zerolog.Logger) (translate.Provider, string) {
	if cfg.APIKey == "" {
		return nil, i18n.T("no Gemini API key; run 'arbkit auth login' or set ARBKIT_API_KEY")
	}
	g := translate.NewGemini(cfg.APIKey, cfg.Model, cfg.Timeout)
	if base := settings.GetBaseURL(settings.Gemini); base != "" {
		g.BaseURL = base
	}
	g.Logger = log
	return g, ""
}

// loadLock opens the lock file next to .arbkit.yaml. A broken lock file is
// reported and replaced by an empty one.
func loadLock() *lockfile.LockFile {
	lock, err := lockfile.Load(rootDir)
	if err != nil {
		logWarning("%v; starting with an empty lock", err)
		return lockfile.New()
	}
	return lock
}

// askOnParseError asks whether an unparsable ARB file should be reset.
func askOnParseError(ctx context.Context, ch editor.Chooser) arbfile.ParseErrorFunc {
	return func(path string, err error) arbfile.Recovery {
		logError("%v", err)
		idx, cerr := ch.Choose(ctx, fmt.Sprintf(i18n.T("%s is not valid ARB JSON"), path), []string{
			i18n.T("Abort"),
			i18n.T("Reset it to an empty file"),
		})
		if cerr != nil || idx != 1 {
			return arbfile.RecoveryAbort
		}
		return arbfile.RecoveryReset
	}
}

// progress renders translation progress on stderr. The bar is created on
// the first update, when the total is known.
type progress struct {
	desc string
	bar  *progressbar.ProgressBar
}

func (p *progress) update(label string, done, total int) {
	if p.bar == nil {
		p.bar = newProgressBar(total, p.desc)
	}
	p.bar.Describe(fmt.Sprintf("[cyan]%s[reset] %s", p.desc, label))
	_ = p.bar.Set(done)
}

func (p *progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}

func newProgressBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", desc)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// statsBar renders a coloured completion bar: red below 50%, yellow below
// 100%, green when complete.
func statsBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	c := color.New(color.FgYellow)
	switch {
	case percent < 50:
		c = color.New(color.FgRed)
	case percent == 100:
		c = color.New(color.FgGreen)
	}
	return fmt.Sprintf("%s %3d%%", c.Sprint(bar), percent)
}

// splitLangs parses a comma-separated --lang value.
func splitLangs(s string) []string {
	var langs []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !seen[part] {
			seen[part] = true
			langs = append(langs, part)
		}
	}
	return langs
}

// parseRange parses a "START:END" byte range.
func parseRange(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("range %q: want START:END", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: bad start: %w", s, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: bad end: %w", s, err)
	}
	if start < 0 || end <= start {
		return 0, 0, fmt.Errorf("range %q: end must be after start", s)
	}
	return start, end, nil
}

// relPath shortens path for display relative to --root.
func relPath(path string) string {
	if rel, err := filepath.Rel(rootDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// reportFailures prints one line per failed target and returns an error
// when there was any.
func reportFailures(failures []error) error {
	for _, f := range failures {
		logError("%v", f)
	}
	if len(failures) > 0 {
		return fmt.Errorf(i18n.N("%d translation failed", "%d translations failed", len(failures)), len(failures))
	}
	return nil
}
