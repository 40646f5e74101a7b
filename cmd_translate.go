package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/config"
	"github.com/minios-linux/arbkit/editor"
	"github.com/minios-linux/arbkit/extraction"
	"github.com/minios-linux/arbkit/i18n"
)

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		langFlag string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "translate KEY",
		Short: "Translate one existing key into the target languages",
		Long: `Translate an entry that already exists in the source ARB file.

The text is sent to Gemini once per target language and the result is
written under the same key. Targets that .arbkit.lock records as already
translated from the current text are skipped; use --force to translate
them again.

Examples:
  arbkit translate orderNotFound
  arbkit translate orderNotFound --lang es,fr-CA --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			syncer, cfg, err := newSyncer(cmd.Context())
			if err != nil {
				return err
			}
			bar := &progress{desc: i18n.T("Translating")}
			syncer.OnProgress = func(_, lang string, done, total int) { bar.update(lang, done, total) }

			report, err := syncer.Key(cmd.Context(), cfg, args[0], splitLangs(langFlag), force)
			bar.finish()
			if err != nil {
				return err
			}
			return printSyncReport(report)
		},
	}
	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Comma-separated target languages (default: all discovered)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Translate targets that are already up to date")
	return cmd
}

// ---------------------------------------------------------------------------
// sync
// ---------------------------------------------------------------------------

func newSyncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Translate every new or changed key",
		Long: `Bring every target ARB file up to date with the source file.

A key is translated when the target lacks it, holds an empty value, or
when its source text changed since the last translation (tracked in
.arbkit.lock). Existing translations that the lock does not know about are
kept and recorded. Use --force to translate everything again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			syncer, cfg, err := newSyncer(cmd.Context())
			if err != nil {
				return err
			}
			bar := &progress{desc: i18n.T("Syncing")}
			syncer.OnProgress = func(key, lang string, done, total int) {
				bar.update(fmt.Sprintf("%s → %s", key, lang), done, total)
			}

			report, err := syncer.Sync(cmd.Context(), cfg, force)
			bar.finish()
			if err != nil {
				return err
			}
			if report.Keys == 0 && report.OK() {
				logSuccess("%s", i18n.T("Everything is up to date"))
				if report.Adopted > 0 {
					logInfo(i18n.T("Recorded %d existing translations"), report.Adopted)
				}
				return nil
			}
			return printSyncReport(report)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Translate every key again")
	return cmd
}

// newSyncer loads the configuration and wires a Syncer for it. It fails
// when no API key is available.
func newSyncer(ctx context.Context) (*extraction.Syncer, config.Config, error) {
	log := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	provider, reason := newProvider(cfg, log)
	if provider == nil {
		return nil, cfg, fmt.Errorf("%s", reason)
	}
	return &extraction.Syncer{
		Provider:     provider,
		Lock:         loadLock(),
		OnParseError: askOnParseError(ctx, editor.NewTerminalPrompter()),
		Logger:       log,
	}, cfg, nil
}

func printSyncReport(r extraction.SyncReport) error {
	if r.Translated > 0 {
		logSuccess(i18n.N("Translated %d entry", "Translated %d entries", r.Translated), r.Translated)
	}
	if r.Adopted > 0 {
		logInfo(i18n.T("Recorded %d existing translations"), r.Adopted)
	}
	if r.Skipped > 0 {
		logInfo(i18n.T("Skipped %d up-to-date targets; use --force to translate them again"), r.Skipped)
	}
	if r.Err != nil {
		logWarning(i18n.T("Translation stopped: %v"), r.Err)
	}
	failures := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		failures = append(failures, f)
	}
	return reportFailures(failures)
}
