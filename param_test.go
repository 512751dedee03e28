package paramkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParamRegistration tests declaration validation edge cases
func TestParamRegistration(t *testing.T) {
	tests := []struct {
		name        string
		decl        Param
		expectError bool
		errorMsg    string
	}{
		{"ValidString", Param{Name: "host", Kind: KindString, Default: "localhost"}, false, ""},
		{"ValidDottedName", Param{Name: "server.port", Kind: KindInt, Default: 8080}, false, ""},
		{"EmptyName", Param{Name: "", Kind: KindString, Default: ""}, true, "name cannot be empty"},
		{"InvalidCharacter", Param{Name: "port!", Kind: KindInt, Default: 0}, true, "invalid name segment"},
		{"DoubleDot", Param{Name: "server..port", Kind: KindInt, Default: 0}, true, "invalid name segment"},
		{"TrailingDot", Param{Name: "server.port.", Kind: KindInt, Default: 0}, true, "invalid name segment"},
		{"InvalidKind", Param{Name: "x", Default: 1}, true, "invalid kind"},
		{"SelectorWithoutChoices", Param{Name: "mode", Kind: KindSelector, Default: "a"}, true, "at least one choice"},
		{"SelectorBadDefault", Param{Name: "mode", Kind: KindSelector, Default: "c", Choices: []any{"a", "b"}}, true, "not one of the declared choices"},
		{"BadDefaultType", Param{Name: "port", Kind: KindInt, Default: "nope"}, true, "does not satisfy kind int"},
		{"NilDefaultRejected", Param{Name: "port", Kind: KindInt}, true, "nil not allowed"},
		{"NilDefaultAllowed", Param{Name: "port", Kind: KindInt, AllowNil: true}, false, ""},
		{"FloatAsIntDefault", Param{Name: "n", Kind: KindInt, Default: 3.0}, false, ""},
		{"FractionalIntDefault", Param{Name: "n", Kind: KindInt, Default: 3.5}, true, "does not satisfy kind int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("test")
			err := p.Register(tt.decl)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
				val, exists := p.Get(tt.decl.Name)
				assert.True(t, exists)
				assert.Equal(t, tt.decl.Default, val)
			}
		})
	}
}

// TestSetValidation tests value validation on Set
func TestSetValidation(t *testing.T) {
	p := New("test")
	require.NoError(t, p.Register(Param{Name: "lr", Kind: KindFloat, Default: 1e-4}))
	require.NoError(t, p.Register(Param{Name: "layers", Kind: KindInt, Default: 3}))
	require.NoError(t, p.Register(Param{Name: "mode", Kind: KindSelector, Default: "fast", Choices: []any{"fast", "slow"}}))
	require.NoError(t, p.Register(Param{Name: "tags", Kind: KindList, Default: []any{}, AllowNil: true}))

	t.Run("ValidSet", func(t *testing.T) {
		require.NoError(t, p.Set("lr", 0.01))
		val, _ := p.Get("lr")
		assert.Equal(t, 0.01, val)
	})

	t.Run("KindMismatch", func(t *testing.T) {
		err := p.Set("layers", "three")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("SelectorOutsideChoices", func(t *testing.T) {
		err := p.Set("mode", "medium")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("SelectorNumericTolerance", func(t *testing.T) {
		q := New("q")
		require.NoError(t, q.Register(Param{Name: "n", Kind: KindSelector, Default: 1, Choices: []any{1, 2}}))
		assert.NoError(t, q.Set("n", int64(2)))
	})

	t.Run("NilOnlyWhenAllowed", func(t *testing.T) {
		assert.NoError(t, p.Set("tags", nil))
		err := p.Set("lr", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("UndeclaredSet", func(t *testing.T) {
		err := p.Set("missing", 1)
		assert.ErrorIs(t, err, ErrNotDeclared)
	})
}

// TestResetAndIntrospection tests defaults, reset, and declared names
func TestResetAndIntrospection(t *testing.T) {
	p := New("model")
	require.NoError(t, p.Register(Param{Name: "lr", Kind: KindFloat, Default: 1e-4, Doc: "learning rate"}))
	require.NoError(t, p.Register(Param{Name: "arch", Kind: KindString, Default: "resnet"}))

	require.NoError(t, p.Set("lr", 0.1))
	require.NoError(t, p.Set("arch", "vgg"))

	assert.Equal(t, []string{"arch", "lr"}, p.Declared())
	assert.Equal(t, "learning rate", p.Doc("lr"))
	assert.True(t, p.Has("lr"))
	assert.False(t, p.Has("momentum"))

	def, ok := p.Default("lr")
	require.True(t, ok)
	assert.Equal(t, 1e-4, def)

	kind, ok := p.KindOf("arch")
	require.True(t, ok)
	assert.Equal(t, KindString, kind)

	p.Reset()
	assert.Equal(t, map[string]any{"lr": 1e-4, "arch": "resnet"}, p.Values())

	require.NoError(t, p.Unregister("arch"))
	assert.False(t, p.Has("arch"))
	assert.ErrorIs(t, p.Unregister("arch"), ErrNotDeclared)
}

// TestTypedGetters tests convenience accessors with conversions
func TestTypedGetters(t *testing.T) {
	p := New("test")
	require.NoError(t, p.Register(Param{Name: "host", Kind: KindString, Default: "localhost"}))
	require.NoError(t, p.Register(Param{Name: "port", Kind: KindInt, Default: 8080}))
	require.NoError(t, p.Register(Param{Name: "debug", Kind: KindBool, Default: true}))
	require.NoError(t, p.Register(Param{Name: "rate", Kind: KindFloat, Default: 2.5}))

	t.Run("DirectTypes", func(t *testing.T) {
		s, err := p.String("host")
		require.NoError(t, err)
		assert.Equal(t, "localhost", s)

		i, err := p.Int64("port")
		require.NoError(t, err)
		assert.Equal(t, int64(8080), i)

		b, err := p.Bool("debug")
		require.NoError(t, err)
		assert.True(t, b)

		f, err := p.Float64("rate")
		require.NoError(t, err)
		assert.Equal(t, 2.5, f)
	})

	t.Run("CrossTypeConversion", func(t *testing.T) {
		s, err := p.String("port")
		require.NoError(t, err)
		assert.Equal(t, "8080", s)

		f, err := p.Float64("port")
		require.NoError(t, err)
		assert.Equal(t, 8080.0, f)

		i, err := p.Int64("debug")
		require.NoError(t, err)
		assert.Equal(t, int64(1), i)
	})

	t.Run("Undeclared", func(t *testing.T) {
		_, err := p.String("missing")
		assert.ErrorIs(t, err, ErrNotDeclared)
	})
}

// TestStructRegistration tests declaring parameters from tagged structs
func TestStructRegistration(t *testing.T) {
	type DBConfig struct {
		Host    string        `param:"host" doc:"Database host"`
		Port    int           `param:"port"`
		Timeout time.Duration `param:"timeout"`
	}
	type AppConfig struct {
		Name     string    `param:"name"`
		Started  time.Time `param:"started"`
		Ratio    float64   `param:"ratio"`
		Verbose  bool      `param:"verbose"`
		Tags     []string  `param:"tags"`
		DB       DBConfig  `param:"db"`
		Ignored  string    `param:"-"`
		internal int
	}

	defaults := AppConfig{
		Name:    "app",
		Started: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Ratio:   0.5,
		Verbose: true,
		Tags:    []string{"a"},
		DB:      DBConfig{Host: "localhost", Port: 5432, Timeout: 30 * time.Second},
	}

	p := New("app")
	require.NoError(t, p.RegisterStruct("", defaults))

	assert.Equal(t, []string{
		"db.host", "db.port", "db.timeout",
		"name", "ratio", "started", "tags", "verbose",
	}, p.Declared())

	kind, _ := p.KindOf("db.timeout")
	assert.Equal(t, KindDuration, kind)
	kind, _ = p.KindOf("started")
	assert.Equal(t, KindTime, kind)
	kind, _ = p.KindOf("tags")
	assert.Equal(t, KindList, kind)

	assert.Equal(t, "Database host", p.Doc("db.host"))

	val, _ := p.Get("db.port")
	assert.Equal(t, 5432, val)

	t.Run("WithPrefix", func(t *testing.T) {
		q := New("q")
		require.NoError(t, q.RegisterStruct("svc", DBConfig{Host: "h", Port: 1, Timeout: time.Second}))
		assert.True(t, q.Has("svc.host"))
		assert.True(t, q.Has("svc.timeout"))
	})

	t.Run("NonStruct", func(t *testing.T) {
		q := New("q")
		assert.Error(t, q.RegisterStruct("", 42))
	})
}
