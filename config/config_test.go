package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears every variable Load reads so the host environment does
// not leak into a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	for _, name := range []string{
		"ARBKIT_ARB_DIR", "ARBKIT_SOURCE_LANG", "ARBKIT_FILE_PATTERN", "ARBKIT_PREFIX",
		"ARBKIT_AUTO_TRANSLATE", "ARBKIT_MODEL", "ARBKIT_IMPORT", "ARBKIT_POST_COMMAND",
		"ARBKIT_TIMEOUT", "ARBKIT_API_KEY", "ARBKIT_GEMINI_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, Default(root), cfg)
	assert.Equal(t, filepath.Join(root, "lib", "l10n", "app_en.arb"), cfg.SourcePath())
	assert.False(t, cfg.CanTranslate(), "no API key")
}

func TestLoadFileThenEnv(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
arb_dir: l10n
source_lang: de
prefix: S.of(context)
auto_translate: false
timeout: 15s
import: package:app/l10n.dart
`)
	t.Setenv("ARBKIT_PREFIX", "AppLocalizations.of(context)!")
	t.Setenv("ARBKIT_TIMEOUT", "5s")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "l10n", cfg.ArbDir)
	assert.Equal(t, "de", cfg.SourceLang)
	assert.Equal(t, "AppLocalizations.of(context)!", cfg.Prefix)
	assert.False(t, cfg.AutoTranslate)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "package:app/l10n.dart", cfg.Import)
	assert.Equal(t, DefaultFilePattern, cfg.FilePattern)
	assert.Equal(t, "from-env", cfg.APIKey)
}

func TestLoadAPIKeyPriority(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	t.Setenv("GEMINI_API_KEY", "plain")
	t.Setenv("ARBKIT_GEMINI_API_KEY", "gemini")
	t.Setenv("ARBKIT_API_KEY", "arbkit")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "arbkit", cfg.APIKey)
	assert.True(t, cfg.CanTranslate())
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".env"), "ARBKIT_MODEL=gemini-test\nARBKIT_API_KEY=dotenv-key\n")
	t.Cleanup(func() {
		os.Unsetenv("ARBKIT_MODEL")
		os.Unsetenv("ARBKIT_API_KEY")
	})

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "gemini-test", cfg.Model)
	assert.Equal(t, "dotenv-key", cfg.APIKey)
}

func TestLoadFlutterL10n(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "l10n.yaml"), "arb-dir: lib/i18n\ntemplate-arb-file: intl_en_US.arb\noutput-localization-file: l10n.dart\n")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "lib/i18n", cfg.ArbDir)
	assert.Equal(t, "intl_{lang}.arb", cfg.FilePattern)
	assert.Equal(t, "en_US", cfg.SourceLang)

	writeFile(t, filepath.Join(root, FileName), "file_pattern: strings_{lang}.arb\n")
	cfg, err = Load(root)
	require.NoError(t, err)
	assert.Equal(t, "strings_{lang}.arb", cfg.FilePattern, ".arbkit.yaml wins over l10n.yaml")
}

func TestLoadErrors(t *testing.T) {
	isolate(t)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "arb_dir: [oops\n")
	_, err := Load(root)
	assert.ErrorContains(t, err, FileName)

	root = t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "unknown_key: 1\n")
	_, err = Load(root)
	assert.Error(t, err)

	root = t.TempDir()
	t.Setenv("ARBKIT_TIMEOUT", "soon")
	_, err = Load(root)
	assert.ErrorContains(t, err, "ARBKIT_")
}

func TestLoadStoredAPIKey(t *testing.T) {
	isolate(t)
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	writeFile(t, filepath.Join(data, "arbkit", "auth.json"), `{"gemini": {"type": "api", "key": "stored"}}`)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "stored", cfg.APIKey)
}

func TestValidate(t *testing.T) {
	cfg := Default(".")
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.SourceLang = " "
	assert.ErrorContains(t, bad.Validate(), "source_lang")

	for _, pattern := range []string{"app.arb", "app_{lang}_{lang}.arb", "app_{lang}.json", "l10n/app_{lang}.arb"} {
		bad = cfg
		bad.FilePattern = pattern
		assert.ErrorContains(t, bad.Validate(), "file_pattern", pattern)
	}

	bad = cfg
	bad.Timeout = -time.Second
	assert.Error(t, bad.Validate())
}

func TestDirAbsolute(t *testing.T) {
	cfg := Default("/project")
	cfg.ArbDir = "/elsewhere/l10n"
	assert.Equal(t, "/elsewhere/l10n", cfg.Dir())
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	root := t.TempDir()

	cfg := Default(root)
	cfg.SourceLang = "uk"
	cfg.PostCommand = "flutter gen-l10n"
	cfg.APIKey = "secret"
	require.NoError(t, Save(root, cfg))
	assert.True(t, Exists(root))

	data, err := os.ReadFile(filepath.Join(root, FileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "uk", loaded.SourceLang)
	assert.Equal(t, "flutter gen-l10n", loaded.PostCommand)
	assert.Equal(t, DefaultTimeout, loaded.Timeout)
}

func TestSplitTemplate(t *testing.T) {
	tests := []struct {
		name, pattern, lang string
		ok                  bool
	}{
		{"app_en.arb", "app_{lang}.arb", "en", true},
		{"intl_en_US.arb", "intl_{lang}.arb", "en_US", true},
		{"my_app_en.arb", "my_app_{lang}.arb", "en", true},
		{"strings-pt-BR.arb", "strings-{lang}.arb", "pt-BR", true},
		{"app.arb", "", "", false},
		{"app_en.json", "", "", false},
	}
	for _, tt := range tests {
		pattern, lang, ok := splitTemplate(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.pattern, pattern, tt.name)
		assert.Equal(t, tt.lang, lang, tt.name)
	}
}

func TestLoadPubspec(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pubspec.yaml"), "name: shop\nversion: 1.2.0+3\n")
	assert.Equal(t, Pubspec{Name: "shop", Version: "1.2.0+3"}, LoadPubspec(root))

	empty := t.TempDir()
	assert.Equal(t, Pubspec{Name: filepath.Base(empty), Version: "0.0.0"}, LoadPubspec(empty))
}
