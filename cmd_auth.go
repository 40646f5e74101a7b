package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/arbkit/editor"
	"github.com/minios-linux/arbkit/i18n"
	"github.com/minios-linux/arbkit/settings"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Gemini API key",
		Long: `Store, inspect or remove the Gemini API key used for translation.

The key is kept in $XDG_DATA_HOME/arbkit/auth.json (mode 0600). ARBKIT_API_KEY,
ARBKIT_GEMINI_API_KEY, GEMINI_API_KEY and --api-key take precedence over it.

Examples:
  arbkit auth login                    Paste the key interactively
  arbkit auth login --key AIza...      Store the key directly
  arbkit auth status                   Show where the key comes from
  arbkit auth logout                   Remove the stored key`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
	)
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var key, baseURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a Gemini API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				fmt.Fprintln(os.Stderr, i18n.T("Create a key at https://aistudio.google.com/apikey"))
				var err error
				key, err = editor.NewTerminalPrompter().Input(cmd.Context(), i18n.T("Gemini API key"), "", editor.NotEmpty)
				if err != nil {
					return err
				}
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("%s", i18n.T("API key must not be empty"))
			}

			store := settings.Load()
			store[settings.Gemini] = &settings.Info{Type: "api", Key: key, BaseURL: baseURL}
			if err := settings.Save(store); err != nil {
				return err
			}
			logSuccess(i18n.T("Saved Gemini API key %s to %s"), settings.MaskKey(key), settings.FilePath())
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key (prompted when omitted)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Alternative Gemini API endpoint")
	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored Gemini API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess("%s", i18n.T("Removed all stored credentials"))
				return nil
			}
			if settings.GetAPIKey(settings.Gemini) == "" {
				logInfo("%s", i18n.T("No stored Gemini API key"))
				return nil
			}
			if err := settings.Remove(settings.Gemini); err != nil {
				return err
			}
			logSuccess("%s", i18n.T("Removed the stored Gemini API key"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove the whole credentials file")
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which Gemini API key will be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			source, key := keySource()
			if key == "" {
				fmt.Fprintf(w, "%s %s\n", heading("gemini"), bad(i18n.T("not configured")))
				return nil
			}
			fmt.Fprintf(w, "%s %s %s\n", heading("gemini"), good(settings.MaskKey(key)), source)
			if base := settings.GetBaseURL(settings.Gemini); base != "" {
				fmt.Fprintf(w, "  %s %s\n", i18n.T("endpoint:"), base)
			}
			if stored := settings.Load().Providers(); len(stored) > 0 {
				fmt.Fprintf(w, "  %s %s\n", i18n.T("stored:"), strings.Join(stored, ", "))
			}
			return nil
		},
	}
}

// keySource returns where the effective API key comes from and the key.
// It mirrors the precedence of config.Load without reading .env.
func keySource() (string, string) {
	if apiKeyFlag != "" {
		return "(--api-key)", apiKeyFlag
	}
	for _, name := range []string{"ARBKIT_API_KEY", "ARBKIT_GEMINI_API_KEY", "GEMINI_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return "($" + name + ")", v
		}
	}
	if v := settings.GetAPIKey(settings.Gemini); v != "" {
		return "(" + settings.FilePath() + ")", v
	}
	return "", ""
}
