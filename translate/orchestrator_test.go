package translate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/arbkit/arbfile"
	"github.com/minios-linux/arbkit/discover"
	"github.com/minios-linux/arbkit/lockfile"
)

// fakeProvider prefixes the text with the language and fails for the
// languages in fail.
type fakeProvider struct {
	fail  map[string]error
	calls []string
}

func (f *fakeProvider) Translate(_ context.Context, req Request) (string, error) {
	f.calls = append(f.calls, req.TargetLang)
	if err := f.fail[req.TargetLang]; err != nil {
		return "", err
	}
	return `"` + req.TargetLang + ": " + req.Text + `"`, nil
}

func newJob(dir string) Job {
	return Job{
		Key:          "orderNotFound",
		Text:         "Order not found {code}",
		Placeholders: []string{"code"},
		SourceLang:   "en",
		Dir:          dir,
		Pattern:      discover.MustPattern("app_{lang}.arb"),
	}
}

func readARB(t *testing.T, path string) *arbfile.File {
	t.Helper()
	f, err := arbfile.ParseFile(path)
	require.NoError(t, err)
	return f
}

func TestOrchestrator_WritesEveryTarget(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app_es.arb"),
		[]byte(`{"@@locale": "es", "a": "Hola", "@_END_OF_FILE": "marker"}`), 0644))

	o := &Orchestrator{Provider: &fakeProvider{}, Logger: zerolog.Nop()}
	report := o.Run(context.Background(), newJob(dir), []string{"es", "fr-CA"})
	require.True(t, report.OK())
	assert.Equal(t, []string{"es", "fr-CA"}, report.Succeeded)

	es := readARB(t, filepath.Join(dir, "app_es.arb"))
	v, _ := es.Get("orderNotFound")
	assert.Equal(t, "es: Order not found {code}", v, "quotes are stripped")
	assert.Equal(t, []string{"code"}, es.Placeholders("orderNotFound"))

	var keys []string
	for _, e := range es.Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"@@locale", "a", "orderNotFound", "@orderNotFound", arbfile.SentinelKey}, keys)

	fr := readARB(t, filepath.Join(dir, "app_fr-CA.arb"))
	assert.Equal(t, "fr-CA", fr.Locale())
	v, _ = fr.Get("orderNotFound")
	assert.Equal(t, "fr-CA: Order not found {code}", v)
}

func TestOrchestrator_NoPlaceholdersNoMetadata(t *testing.T) {
	dir := t.TempDir()
	job := newJob(dir)
	job.Text, job.Placeholders = "Hello", nil

	report := (&Orchestrator{Provider: &fakeProvider{}}).Run(context.Background(), job, []string{"de"})
	require.True(t, report.OK())
	assert.False(t, readARB(t, filepath.Join(dir, "app_de.arb")).Has("@orderNotFound"))
}

func TestOrchestrator_FailureIsIsolated(t *testing.T) {
	langs := []string{"es", "de", "fr", "ja", "uk"}
	for k := range langs {
		t.Run(langs[k], func(t *testing.T) {
			dir := t.TempDir()
			boom := &Error{Kind: KindStatus, Lang: langs[k], Status: 500, Message: "boom"}
			provider := &fakeProvider{fail: map[string]error{langs[k]: boom}}

			var progress []int
			var logs bytes.Buffer
			o := &Orchestrator{
				Provider:   provider,
				Logger:     zerolog.New(&logs),
				OnProgress: func(_ string, done, total int) { progress = append(progress, done) },
			}
			report := o.Run(context.Background(), newJob(dir), langs)

			assert.Len(t, report.Succeeded, len(langs)-1)
			require.Len(t, report.Failed, 1)
			assert.Equal(t, langs[k], report.Failed[0].Lang)
			assert.ErrorIs(t, report.Failed[0].Err, boom)
			assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)
			assert.Equal(t, langs, provider.calls)
			assert.Contains(t, logs.String(), `"lang":"`+langs[k]+`"`)

			for i, lang := range langs {
				_, err := os.Stat(filepath.Join(dir, "app_"+lang+".arb"))
				if i == k {
					assert.True(t, os.IsNotExist(err), "failed target must not be written")
				} else {
					assert.NoError(t, err)
				}
			}
		})
	}
}

func TestOrchestrator_SourceLangIsNotATarget(t *testing.T) {
	dir := t.TempDir()
	source := `{"@@locale": "en", "orderNotFound": "Order not found {code}"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app_en.arb"), []byte(source), 0644))
	provider := &fakeProvider{}

	report := (&Orchestrator{Provider: provider}).Run(context.Background(), newJob(dir), []string{"en", "es"})
	assert.Equal(t, []string{"es"}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "en", report.Failed[0].Lang)
	assert.ErrorIs(t, report.Failed[0].Err, ErrSourceTarget)
	assert.Equal(t, []string{"es"}, provider.calls)

	data, err := os.ReadFile(filepath.Join(dir, "app_en.arb"))
	require.NoError(t, err)
	assert.Equal(t, source, string(data))
}

func TestOrchestrator_UnparsableTarget(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "app_es.arb")
	require.NoError(t, os.WriteFile(broken, []byte("{nope"), 0644))

	o := &Orchestrator{Provider: &fakeProvider{}}
	report := o.Run(context.Background(), newJob(dir), []string{"es", "de"})
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, arbfile.ErrAborted)
	assert.Equal(t, []string{"de"}, report.Succeeded)

	data, _ := os.ReadFile(broken)
	assert.Equal(t, "{nope", string(data))

	o.OnParseError = func(string, error) arbfile.Recovery { return arbfile.RecoveryReset }
	report = o.Run(context.Background(), newJob(dir), []string{"es"})
	require.True(t, report.OK())
	assert.True(t, readARB(t, broken).Has("orderNotFound"))
}

func TestOrchestrator_NonTextKeyInTarget(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app_es.arb"), []byte(`{"orderNotFound": 1}`), 0644))

	report := (&Orchestrator{Provider: &fakeProvider{}}).Run(context.Background(), newJob(dir), []string{"es"})
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Error(), "app_es.arb")
}

func TestOrchestrator_CancelStopsBeforeNextTarget(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	provider := ProviderFunc(func(_ context.Context, req Request) (string, error) {
		cancel()
		return "x", nil
	})
	report := (&Orchestrator{Provider: provider}).Run(ctx, newJob(dir), []string{"es", "de"})
	assert.Equal(t, []string{"es"}, report.Succeeded)
	assert.True(t, errors.Is(report.Err, context.Canceled))
	assert.False(t, report.OK())
}

func TestOrchestrator_LockSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	lock, err := lockfile.Load(dir)
	require.NoError(t, err)
	provider := &fakeProvider{}
	o := &Orchestrator{Provider: provider, Lock: lock, SkipUnchanged: true}
	job := newJob(dir)

	report := o.Run(context.Background(), job, []string{"es"})
	require.Equal(t, []string{"es"}, report.Succeeded)
	assert.False(t, lock.IsChanged("es", job.Key, lockfile.EntryContent(job.Key, job.Text)))

	report = o.Run(context.Background(), job, []string{"es"})
	assert.Equal(t, []string{"es"}, report.Skipped)
	assert.Len(t, provider.calls, 1)

	job.Text = "Order {code} is missing"
	report = o.Run(context.Background(), job, []string{"es"})
	assert.Equal(t, []string{"es"}, report.Succeeded)
	assert.Len(t, provider.calls, 2)
}

func TestOrchestrator_DroppedPlaceholderWarns(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	provider := ProviderFunc(func(context.Context, Request) (string, error) { return "Pedido no encontrado", nil })

	report := (&Orchestrator{Provider: provider, Logger: zerolog.New(&logs)}).Run(context.Background(), newJob(dir), []string{"es"})
	require.True(t, report.OK())
	assert.True(t, strings.Contains(logs.String(), "dropped a placeholder"))
}
