package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/config"
	"github.com/minios-linux/arbkit/discover"
	"github.com/minios-linux/arbkit/editor"
	"github.com/minios-linux/arbkit/extract"
	"github.com/minios-linux/arbkit/i18n"
	"github.com/minios-linux/arbkit/langmeta"
	"github.com/minios-linux/arbkit/lockfile"
)

// ---------------------------------------------------------------------------
// langs
// ---------------------------------------------------------------------------

func newLangsCmd() *cobra.Command {
	var addFlag string

	cmd := &cobra.Command{
		Use:   "langs",
		Short: "List target languages, or add one",
		Long: `List the target languages found next to the source ARB file with their
translation progress, or create an empty ARB file for a new language.

Examples:
  arbkit langs
  arbkit langs --add pt-BR`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addFlag != "" {
				lang, err := discover.AddTarget(cmd.Context(), cfg.Dir(), cfg.Pattern(), cfg.SourceLang,
					&editor.Scripted{Inputs: []string{addFlag}})
				if err != nil {
					return err
				}
				logSuccess(i18n.T("Added %s: %s"), langmeta.Resolve(lang).Label(), relPath(cfg.Pattern().Path(cfg.Dir(), lang)))
				return nil
			}
			return listLangs(cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().StringVar(&addFlag, "add", "", "Create an empty ARB file for this language code")
	return cmd
}

func listLangs(w io.Writer, cfg config.Config) error {
	langs, err := discover.Discover(cfg.Dir(), cfg.Pattern(), cfg.SourceLang)
	if err != nil {
		return err
	}
	if len(langs) == 0 {
		logWarning(i18n.T("No target languages in %s; add one with 'arbkit langs --add CODE'"), relPath(cfg.Dir()))
		return nil
	}
	src, err := arbfile.ParseFile(cfg.SourcePath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for _, lang := range langs {
		fmt.Fprintln(w, langLine(cfg, src, lang))
	}
	return nil
}

// langLine is one row of the language table: code, name and how many
// source keys the target has a non-empty value for.
func langLine(cfg config.Config, src *arbfile.File, lang string) string {
	meta := langmeta.Resolve(lang)
	label := fmt.Sprintf("  %-8s %-36s", lang, meta.Label())

	target, err := arbfile.ParseFile(cfg.Pattern().Path(cfg.Dir(), lang))
	if err != nil {
		return label + " " + bad(i18n.T("unreadable"))
	}
	if src == nil {
		return label
	}
	done, total := coverage(src, target)
	pct := 100
	if total > 0 {
		pct = done * 100 / total
	}
	return fmt.Sprintf("%s %s  %d/%d", label, statsBar(pct, 20), done, total)
}

// coverage counts the non-empty source keys and how many of them target
// has a non-empty value for.
func coverage(src, target *arbfile.File) (done, total int) {
	for _, key := range src.Keys() {
		if v, _ := src.Get(key); v == "" {
			continue
		}
		total++
		if v, ok := target.Get(key); ok && v != "" {
			done++
		}
	}
	return done, total
}

// ---------------------------------------------------------------------------
// suggest
// ---------------------------------------------------------------------------

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest TEXT",
		Short: "Show the placeholders and key suggested for a text",
		Long: `Show what "arbkit extract" would do with the contents of a string
literal without touching any file.

Example:
  arbkit suggest 'Order not found: ${order.id}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printSuggestion(cmd.OutOrStdout(), cfg.Prefix, args[0])
			return nil
		},
	}
}

func printSuggestion(w io.Writer, prefix, text string) {
	res := extract.Convert(text)
	key := extract.SuggestKey(res.Text)

	fmt.Fprintf(w, "%s %s\n", heading(i18n.T("Text:")), res.Value())
	fmt.Fprintf(w, "%s %s\n", heading(i18n.T("Key:")), key)
	for i, name := range res.Names {
		fmt.Fprintf(w, "  {%s} ← %s\n", name, res.Originals[i])
	}
	fmt.Fprintf(w, "%s %s\n", heading(i18n.T("Code:")), extract.Replacement(prefix, key, res.Originals))
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project configuration and translation statistics",
		Long: `Show the resolved configuration, the source ARB file, the target
languages with their progress and the lock file. Does not modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runStatus(cmd.OutOrStdout(), cfg)
		},
	}
}

func runStatus(w io.Writer, cfg config.Config) error {
	pub := config.LoadPubspec(cfg.Root)
	absRoot, _ := filepath.Abs(cfg.Root)

	fmt.Fprintf(w, "\n%s\n", heading(i18n.T("Project")))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  %-14s %s %s\n", i18n.T("Name:"), pub.Name, pub.Version)
	fmt.Fprintf(w, "  %-14s %s\n", i18n.T("Root:"), absRoot)
	fmt.Fprintf(w, "  %-14s %s\n", i18n.T("Config:"), configSources(cfg.Root))
	fmt.Fprintf(w, "  %-14s %s\n", i18n.T("ARB dir:"), relPath(cfg.Dir()))
	fmt.Fprintf(w, "  %-14s %s\n", i18n.T("Pattern:"), cfg.FilePattern)
	fmt.Fprintf(w, "  %-14s %s\n", i18n.T("Accessor:"), cfg.Prefix+".<key>")
	if cfg.Import != "" {
		fmt.Fprintf(w, "  %-14s %s\n", i18n.T("Import:"), cfg.Import)
	}
	if cfg.PostCommand != "" {
		fmt.Fprintf(w, "  %-14s %s\n", i18n.T("Post command:"), cfg.PostCommand)
	}

	translation := bad(i18n.T("off"))
	switch {
	case cfg.CanTranslate():
		translation = good(fmt.Sprintf("%s (%s)", cfg.Model, i18n.T("API key set")))
	case cfg.AutoTranslate:
		translation = bad(i18n.T("no API key"))
	}
	fmt.Fprintf(w, "  %-14s %s\n", i18n.T("Translation:"), translation)

	fmt.Fprintf(w, "\n%s\n", heading(i18n.T("Source")))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	src, err := arbfile.ParseFile(cfg.SourcePath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintf(w, "  %s %s\n", relPath(cfg.SourcePath()), i18n.T("(not created yet)"))
		src = nil
	case err != nil:
		fmt.Fprintf(w, "  %s %s\n", relPath(cfg.SourcePath()), bad(err.Error()))
		src = nil
	default:
		total, _, _ := src.Stats()
		fmt.Fprintf(w, "  %s: %d %s, %d %s\n", relPath(cfg.SourcePath()),
			total, i18n.T("keys"), len(src.UntranslatedKeys()), i18n.T("empty"))
	}

	fmt.Fprintf(w, "\n%s\n", heading(i18n.T("Targets")))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	langs, err := discover.Discover(cfg.Dir(), cfg.Pattern(), cfg.SourceLang)
	if err != nil || len(langs) == 0 {
		fmt.Fprintf(w, "  %s\n", i18n.T("none"))
	}
	for _, lang := range langs {
		fmt.Fprintln(w, langLine(cfg, src, lang))
	}

	lock, err := lockfile.Load(cfg.Root)
	fmt.Fprintf(w, "\n%s\n", heading(i18n.T("Lock")))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	if err != nil {
		fmt.Fprintf(w, "  %s\n", bad(err.Error()))
	} else {
		fmt.Fprintf(w, "  %s: %s\n", lockfile.LockFileName, lock.Summary())
	}
	fmt.Fprintln(w)
	return nil
}

// configSources lists the configuration files present in root.
func configSources(root string) string {
	var found []string
	for _, name := range []string{"l10n.yaml", config.FileName, ".env"} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			found = append(found, name)
		}
	}
	if len(found) == 0 {
		return i18n.T("defaults")
	}
	return strings.Join(found, ", ")
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write .arbkit.yaml with the current settings",
		Long: `Write the resolved configuration (defaults, l10n.yaml, environment) to
.arbkit.yaml so it can be edited and committed. The API key is never
written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Exists(rootDir) && !force {
				return fmt.Errorf(i18n.T("%s already exists; use --force to overwrite it"), config.FileName)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.Save(rootDir, cfg); err != nil {
				return err
			}
			logSuccess(i18n.T("Wrote %s"), filepath.Join(rootDir, config.FileName))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
