package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/conflict"
	"github.com/minios-linux/arbkit/editor"
	"github.com/minios-linux/arbkit/extraction"
	"github.com/minios-linux/arbkit/i18n"
)

// extractFlags holds the flags of "arbkit extract".
type extractFlags struct {
	rangeSpec   string
	line, col   int
	key         string
	yes         bool
	onKey       string
	onValue     string
	noTranslate bool
	prefix      string
	importStmt  string
	postCommand string
}

func newExtractCmd() *cobra.Command {
	var f extractFlags

	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract a string literal into the source ARB file",
		Long: `Extract the Dart string literal at --range or --line/--col in FILE.

Interpolations become ARB placeholders ('${order.id}' becomes {id}), the
text is stored in the source ARB file under a key you confirm, the literal
is replaced with the generated accessor and the new entry is translated
into every target language.

Examples:
  arbkit extract lib/home.dart --line 42 --col 18
  arbkit extract lib/home.dart --range 1024:1061 --key checkoutTitle
  arbkit extract lib/home.dart --line 42 --col 18 --yes --on-key-conflict create`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.rangeSpec, "range", "", "Byte range START:END of the literal, quotes included")
	cmd.Flags().IntVar(&f.line, "line", 0, "1-based line inside the literal")
	cmd.Flags().IntVar(&f.col, "col", 0, "1-based column inside the literal")
	cmd.Flags().StringVar(&f.key, "key", "", "Key to use instead of asking")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Do not prompt; accept suggested values")
	cmd.Flags().StringVar(&f.onKey, "on-key-conflict", "", "Answer to an existing key: reuse, create or cancel")
	cmd.Flags().StringVar(&f.onValue, "on-value-conflict", "", "Answer to an existing value: reuse, add or cancel")
	cmd.Flags().BoolVar(&f.noTranslate, "no-translate", false, "Do not translate the new entry")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "Accessor prefix (default from config)")
	cmd.Flags().StringVar(&f.importStmt, "import", "", "Import to ensure in FILE (default from config)")
	cmd.Flags().StringVar(&f.postCommand, "post-command", "", "Command to run after extraction (default from config)")
	cmd.MarkFlagsMutuallyExclusive("range", "line")

	_ = cmd.RegisterFlagCompletionFunc("on-key-conflict", fixedCompletions("reuse", "create", "cancel"))
	_ = cmd.RegisterFlagCompletionFunc("on-value-conflict", fixedCompletions("reuse", "add", "cancel"))

	return cmd
}

func fixedCompletions(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// selectionFor builds the selection from --range or --line/--col.
func selectionFor(path string, f extractFlags) (editor.FileSelection, error) {
	sel := editor.FileSelection{Path: path}
	switch {
	case f.rangeSpec != "":
		start, end, err := parseRange(f.rangeSpec)
		if err != nil {
			return sel, err
		}
		sel.Start, sel.End = start, end
	case f.line > 0 && f.col > 0:
		sel.Line, sel.Col = f.line, f.col
	default:
		return sel, fmt.Errorf("%w: pass --range or --line and --col", editor.ErrNoSelection)
	}
	return sel, nil
}

// deciderFor returns nil (ask interactively) unless a conflict flag or
// --yes asks for fixed answers. Unset answers cancel.
func deciderFor(f extractFlags) (conflict.Decider, error) {
	if !f.yes && f.onKey == "" && f.onValue == "" {
		return nil, nil
	}
	onKey, err := conflict.ParseKeyDecision(f.onKey)
	if err != nil {
		return nil, err
	}
	onValue, err := conflict.ParseValueDecision(f.onValue)
	if err != nil {
		return nil, err
	}
	return conflict.FixedDecider{OnKey: onKey, OnValue: onValue}, nil
}

func runExtract(cmd *cobra.Command, path string, f extractFlags) error {
	ctx := cmd.Context()
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if f.prefix != "" {
		cfg.Prefix = f.prefix
	}
	if f.importStmt != "" {
		cfg.Import = f.importStmt
	}
	if f.postCommand != "" {
		cfg.PostCommand = f.postCommand
	}
	if f.noTranslate {
		cfg.AutoTranslate = false
	}

	sel, err := selectionFor(path, f)
	if err != nil {
		return err
	}
	decider, err := deciderFor(f)
	if err != nil {
		return err
	}

	var prompter editor.Prompter = editor.NewTerminalPrompter()
	if f.yes {
		prompter = &editor.Scripted{}
	}

	bar := &progress{desc: i18n.T("Translating")}
	ex := &extraction.Extractor{
		Selection:    sel,
		Prompter:     prompter,
		Replacer:     editor.FileReplacer{},
		Importer:     editor.FileImporter{},
		Runner:       editor.ShellRunner{},
		Decider:      decider,
		Key:          f.key,
		Lock:         loadLock(),
		OnParseError: askOnParseError(ctx, prompter),
		OnProgress:   bar.update,
		Logger:       log,
	}
	if cfg.AutoTranslate {
		provider, reason := newProvider(cfg, log)
		if provider == nil {
			logWarning("%s", reason)
		} else {
			ex.Provider = provider
		}
	}

	res, err := ex.Run(ctx, cfg)
	bar.finish()
	if err != nil {
		return err
	}
	if res.Cancelled {
		logWarning("%s", i18n.T("Extraction cancelled, nothing changed"))
		return nil
	}

	if res.Reused {
		logSuccess(i18n.T("Reused existing key %s"), res.Key)
	} else {
		logSuccess(i18n.T("Added %s to %s"), res.Key, relPath(cfg.SourcePath()))
		if len(res.Placeholders) > 0 {
			logInfo(i18n.T("Placeholders: %s"), strings.Join(res.Placeholders, ", "))
		}
	}
	logInfo(i18n.T("Replaced selection with %s"), res.Replacement)
	if res.ImportAdded {
		logInfo(i18n.T("Added import %s"), cfg.Import)
	}

	var failures []error
	if len(res.Translation.Succeeded) > 0 {
		logSuccess(i18n.T("Translated into %s"), strings.Join(res.Translation.Succeeded, ", "))
	}
	for _, fl := range res.Translation.Failed {
		failures = append(failures, fl)
	}
	if res.Translation.Err != nil {
		logWarning(i18n.T("Translation stopped: %v"), res.Translation.Err)
	}

	if cfg.PostCommand != "" {
		if out := strings.TrimSpace(res.CommandOutput); out != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), out)
		}
		if res.CommandErr != nil {
			logWarning(i18n.T("Post-extraction command failed: %v"), res.CommandErr)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Replacement)
	return reportFailures(failures)
}
