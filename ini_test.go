package paramkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iniSet(t *testing.T) *Params {
	t.Helper()
	p := New("train")
	require.NoError(t, p.Register(Param{Name: "lr", Kind: KindFloat, Default: 1e-4, Doc: "Learning rate"}))
	require.NoError(t, p.Register(Param{Name: "tags", Kind: KindList, Default: []any{"a", "b"}}))
	require.NoError(t, p.Register(Param{Name: "limits", Kind: KindMap, Default: map[string]any{"x": int64(1)}}))
	require.NoError(t, p.Register(Param{Name: "note", Kind: KindString, Default: nil, AllowNil: true}))
	return p
}

// TestINIRoundTrip tests single-set INI output and re-application
func TestINIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.ini")

	p := iniSet(t)
	require.NoError(t, p.Set("lr", 0.5))
	require.NoError(t, SerializeToINI(path, p, INIOptions{}))

	q := iniSet(t)
	require.NoError(t, DeserializeFromINI(path, q, INIOptions{}))

	val, _ := q.Get("lr")
	assert.Equal(t, 0.5, val)
	val, _ = q.Get("tags")
	assert.Equal(t, []any{"a", "b"}, val)
	val, _ = q.Get("note")
	assert.Nil(t, val)
}

// TestINIContainersAsJSONStrings tests the container encoding on disk
func TestINIContainersAsJSONStrings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.ini")

	require.NoError(t, SerializeToINI(path, iniSet(t), INIOptions{}))

	doc, err := ReadINIDocument(path)
	require.NoError(t, err)
	section := doc.(map[string]any)["train"].(map[string]any)
	assert.Equal(t, `["a","b"]`, section["tags"])
	assert.Equal(t, `{"x":1}`, section["limits"])
	assert.Equal(t, "", section["note"])
}

// TestINISectionNaming tests the Section option and the set-name default
func TestINISectionNaming(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.ini")

	p := iniSet(t)
	require.NoError(t, SerializeToINI(path, p, INIOptions{Section: "custom"}))

	q := iniSet(t)
	err := DeserializeFromINI(path, q, INIOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "train")

	require.NoError(t, DeserializeFromINI(path, q, INIOptions{Section: "custom"}))
}

// TestINIGroups tests depth-1 groups and the depth limit
func TestINIGroups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.ini")

	model := New("model")
	require.NoError(t, model.Register(Param{Name: "layers", Kind: KindInt, Default: 3}))
	train := New("train")
	require.NoError(t, train.Register(Param{Name: "epochs", Kind: KindInt, Default: 10}))

	g := Group{"model": model, "train": train}
	require.NoError(t, SerializeToINI(path, g, INIOptions{}))

	model2 := New("model")
	require.NoError(t, model2.Register(Param{Name: "layers", Kind: KindInt, Default: 0}))
	train2 := New("train")
	require.NoError(t, train2.Register(Param{Name: "epochs", Kind: KindInt, Default: 0}))
	require.NoError(t, DeserializeFromINI(path, Group{"model": model2, "train": train2}, INIOptions{}))

	val, _ := model2.Get("layers")
	assert.Equal(t, int64(3), val)
	val, _ = train2.Get("epochs")
	assert.Equal(t, int64(10), val)

	t.Run("TooDeep", func(t *testing.T) {
		deep := Group{"outer": Group{"inner": model}}
		err := SerializeToINI(path, deep, INIOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deeper than one level")
	})
}

// TestINIHelpComments tests help rendered as key comments
func TestINIHelpComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.ini")

	require.NoError(t, SerializeToINI(path, iniSet(t), INIOptions{IncludeHelp: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Learning rate")
}
