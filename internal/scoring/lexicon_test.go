package scoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLexicon(t *testing.T) {
	lex := DefaultLexicon()
	assert.True(t, lex.IsActionVerb("Led"))
	assert.True(t, lex.IsActionVerb("optimized,"))
	assert.False(t, lex.IsActionVerb("Managed"))
	assert.True(t, lex.IsWeakVerb("managed"))
	assert.True(t, lex.IsStopWord("The"))
	assert.True(t, lex.IsMagnitudeWord("Million"))
	assert.Same(t, lex, lex.Lexicon())
}

func TestLexiconExtend(t *testing.T) {
	base := DefaultLexicon()
	ext := base.Extend(LexiconFile{
		ActionVerbs:    []string{"Managed", "Refined"},
		WeakVerbs:      []string{"Led"},
		StopWords:      []string{"Synergy"},
		MagnitudeWords: []string{"lakh"},
	})

	assert.True(t, ext.IsActionVerb("managed"))
	assert.False(t, ext.IsWeakVerb("managed"))
	assert.True(t, ext.IsActionVerb("refined"))
	assert.False(t, ext.IsActionVerb("led"))
	assert.True(t, ext.IsStopWord("synergy"))
	assert.True(t, ext.IsMagnitudeWord("lakh"))

	// the base is untouched
	assert.False(t, base.IsActionVerb("managed"))
	assert.True(t, base.IsActionVerb("led"))
}

func TestLoadLexicon(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("actionVerbs:\n  - Managed\nstopWords: [synergy]\n"), 0o600))
	lex, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.True(t, lex.IsActionVerb("managed"))
	assert.True(t, lex.IsStopWord("synergy"))

	jsonPath := filepath.Join(dir, "lexicon.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"magnitudeWords": ["crore"]}`), 0o600))
	lex, err = LoadLexicon(jsonPath)
	require.NoError(t, err)
	assert.True(t, lex.IsMagnitudeWord("crore"))

	_, err = LoadLexicon(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("actionVerbs: {not: [a list"), 0o600))
	_, err = LoadLexicon(bad)
	assert.Error(t, err)
}

func TestLexiconWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("actionVerbs: [refined]\n"), 0o600))

	lw, err := NewLexiconWatcher(path, 20*time.Millisecond, nil)
	require.NoError(t, err)
	assert.True(t, lw.Lexicon().IsActionVerb("refined"))
	assert.False(t, lw.Lexicon().IsActionVerb("managed"))

	require.NoError(t, lw.Start())
	defer func() { _ = lw.Stop() }()
	assert.Error(t, lw.Start())

	s, err := New(WithLexicon(lw))
	require.NoError(t, err)
	assert.False(t, s.AssessBullet("Managed a team").HasActionVerb)

	require.NoError(t, os.WriteFile(path, []byte("actionVerbs: [refined, managed]\n"), 0o600))
	assert.Eventually(t, func() bool {
		return lw.Lexicon().IsActionVerb("managed")
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, s.AssessBullet("Managed a team").HasActionVerb)

	// a broken file keeps the last good lexicon
	time.Sleep(100 * time.Millisecond)
	reloads := lw.Reloads()
	require.NoError(t, os.WriteFile(path, []byte("actionVerbs: {broken"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, reloads, lw.Reloads())
	assert.True(t, lw.Lexicon().IsActionVerb("managed"))

	require.NoError(t, lw.Stop())
	require.NoError(t, lw.Stop())
}

func TestNewLexiconWatcherMissingFile(t *testing.T) {
	_, err := NewLexiconWatcher(filepath.Join(t.TempDir(), "nope.yaml"), 0, nil)
	assert.Error(t, err)
}
