package paramkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSerializer struct{ value any }

func (f fixedSerializer) Serialize(string, *Params) (any, error) { return f.value, nil }
func (f fixedSerializer) Help(string, *Params) string            { return "fixed" }

func modelParams(t *testing.T) *Params {
	t.Helper()
	p := New("model")
	require.NoError(t, p.Register(Param{Name: "lr", Kind: KindFloat, Default: 1e-4, Doc: "Learning rate"}))
	require.NoError(t, p.Register(Param{Name: "layers", Kind: KindInt, Default: 3}))
	require.NoError(t, p.Register(Param{Name: "arch", Kind: KindSelector, Default: "resnet", Choices: []any{"resnet", "vgg"}}))
	require.NoError(t, p.Register(Param{Name: "tags", Kind: KindList, Default: []any{"a", "b"}}))
	return p
}

// TestSerializeToMap tests basic serialization and the Only filter
func TestSerializeToMap(t *testing.T) {
	p := modelParams(t)

	t.Run("AllDeclared", func(t *testing.T) {
		doc, err := SerializeToMap(p, SerializeOptions{})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"lr":     1e-4,
			"layers": 3,
			"arch":   "resnet",
			"tags":   []any{"a", "b"},
		}, doc)
	})

	t.Run("OnlySubset", func(t *testing.T) {
		doc, err := SerializeToMap(p, SerializeOptions{Only: []string{"lr"}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"lr": 1e-4}, doc)
	})

	t.Run("OnlyMissingRaises", func(t *testing.T) {
		_, err := SerializeToMap(p, SerializeOptions{Only: []string{"lr", "momentum"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "momentum")
	})

	t.Run("OnlyMissingWarns", func(t *testing.T) {
		var warnings []string
		doc, err := SerializeToMap(p, SerializeOptions{
			Only:      []string{"lr", "momentum"},
			OnMissing: PolicyWarn,
			Warn:      collectWarnings(&warnings),
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"lr": 1e-4}, doc)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "momentum")
	})

	t.Run("OnlyMissingIgnored", func(t *testing.T) {
		doc, err := SerializeToMap(p, SerializeOptions{
			Only:      []string{"momentum"},
			OnMissing: PolicyIgnore,
		})
		require.NoError(t, err)
		assert.Empty(t, doc)
	})
}

// TestSerializerResolution tests the name -> kind -> default chain
func TestSerializerResolution(t *testing.T) {
	p := modelParams(t)

	t.Run("ByNameBeatsByKind", func(t *testing.T) {
		doc, err := SerializeToMap(p, SerializeOptions{
			Only:   []string{"lr"},
			ByName: map[string]Serializer{"lr": fixedSerializer{value: "by-name"}},
			ByKind: map[Kind]Serializer{KindFloat: fixedSerializer{value: "by-kind"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "by-name", doc["lr"])
	})

	t.Run("ByKindBeatsDefault", func(t *testing.T) {
		doc, err := SerializeToMap(p, SerializeOptions{
			Only:   []string{"lr", "layers"},
			ByKind: map[Kind]Serializer{KindFloat: fixedSerializer{value: "by-kind"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "by-kind", doc["lr"])
		assert.Equal(t, 3, doc["layers"])
	})

	t.Run("UnknownKindFails", func(t *testing.T) {
		const KindCustom = Kind(1000)
		q := New("q")
		require.NoError(t, q.Register(Param{Name: "x", Kind: KindCustom, Default: 1}))
		_, err := SerializeToMap(q, SerializeOptions{})
		assert.ErrorIs(t, err, ErrNoSerializer)
	})

	t.Run("UnknownKindViaByKind", func(t *testing.T) {
		const KindCustom = Kind(1000)
		q := New("q")
		require.NoError(t, q.Register(Param{Name: "x", Kind: KindCustom, Default: 1}))
		doc, err := SerializeToMap(q, SerializeOptions{
			ByKind: map[Kind]Serializer{KindCustom: fixedSerializer{value: "custom"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "custom", doc["x"])
	})
}

// TestBuiltinSerializers tests time, duration, and selector output
func TestBuiltinSerializers(t *testing.T) {
	p := New("test")
	stamp := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.Register(Param{Name: "when", Kind: KindTime, Default: stamp}))
	require.NoError(t, p.Register(Param{Name: "wait", Kind: KindDuration, Default: 90 * time.Second}))
	require.NoError(t, p.Register(Param{Name: "day", Kind: KindTime, Default: stamp, TimeFormats: []string{"2006-01-02"}}))

	doc, err := SerializeToMap(p, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01T12:00:00Z", doc["when"])
	assert.Equal(t, "1m30s", doc["wait"])
	assert.Equal(t, "2024-06-01", doc["day"])
}

// TestSerializeHelp tests help text collection
func TestSerializeHelp(t *testing.T) {
	p := modelParams(t)
	_, help, err := SerializeToMapHelp(p, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Learning rate", help["lr"])
	assert.Equal(t, "Choices: resnet, vgg", help["arch"])
	assert.NotContains(t, help, "layers")
}

// TestSerializeGroup tests nested group serialization
func TestSerializeGroup(t *testing.T) {
	model := modelParams(t)
	train := New("train")
	require.NoError(t, train.Register(Param{Name: "epochs", Kind: KindInt, Default: 10}))

	g := Group{
		"model": model,
		"run":   Group{"train": train},
	}

	doc, err := SerializeGroupToMap(g, SerializeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, doc["model"].(map[string]any)["layers"])
	assert.Equal(t, 10, doc["run"].(map[string]any)["train"].(map[string]any)["epochs"])

	t.Run("BadMember", func(t *testing.T) {
		_, err := SerializeGroupToMap(Group{"x": 42}, SerializeOptions{})
		assert.Error(t, err)
	})
}
