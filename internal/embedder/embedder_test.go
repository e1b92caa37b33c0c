package embedder

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "empty string",
			text: "",
			want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name: "simple text",
			text: "hello world",
			want: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeHash(tt.text))
		})
	}
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name    string
		texts   []string
		wantErr error
	}{
		{name: "valid", texts: []string{"a", "b"}},
		{name: "empty batch", texts: nil, wantErr: ErrInvalidInput},
		{name: "empty text", texts: []string{"a", ""}, wantErr: ErrEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatch(tt.texts)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCache(t *testing.T) {
	t.Run("get returns a copy", func(t *testing.T) {
		cache := NewCache(10)
		cache.Set("k", []float32{1, 2, 3})

		got, ok := cache.Get("k")
		require.True(t, ok)
		got[0] = 99

		again, ok := cache.Get("k")
		require.True(t, ok)
		assert.Equal(t, []float32{1, 2, 3}, again)
	})

	t.Run("set stores a copy", func(t *testing.T) {
		cache := NewCache(10)
		vec := []float32{1, 2}
		cache.Set("k", vec)
		vec[0] = 42

		got, _ := cache.Get("k")
		assert.Equal(t, []float32{1, 2}, got)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		cache := NewCache(2)
		cache.Set("a", []float32{1})
		cache.Set("b", []float32{2})
		_, _ = cache.Get("a")
		cache.Set("c", []float32{3})

		_, ok := cache.Get("b")
		assert.False(t, ok)
		_, ok = cache.Get("a")
		assert.True(t, ok)
		_, ok = cache.Get("c")
		assert.True(t, ok)
	})

	t.Run("nil cache is a no-op", func(t *testing.T) {
		var cache *Cache
		cache.Set("a", []float32{1})
		_, ok := cache.Get("a")
		assert.False(t, ok)
	})
}

func TestEmbedCached(t *testing.T) {
	var calls [][]string
	fetch := func(_ context.Context, texts []string) ([][]float32, error) {
		calls = append(calls, append([]string(nil), texts...))
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = []float32{float32(len(text))}
		}
		return out, nil
	}

	cache := NewCache(10)
	ctx := context.Background()

	got, err := embedCached(ctx, cache, []string{"a", "bb", "ccc"}, 2, fetch)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}, {3}}, got)
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc"}}, calls)

	calls = nil
	got, err = embedCached(ctx, cache, []string{"dddd", "bb"}, 2, fetch)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{4}, {2}}, got)
	assert.Equal(t, [][]string{{"dddd"}}, calls, "cached text is not fetched again")
}

func TestEmbedCachedErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := embedCached(ctx, nil, []string{"a"}, 10, func(context.Context, []string) ([][]float32, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("short response", func(t *testing.T) {
		_, err := embedCached(ctx, nil, []string{"a", "b"}, 10, func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		got := NormalizeVector([]float32{3, 4})
		assert.InDelta(t, 0.6, got[0], 1e-6)
		assert.InDelta(t, 0.8, got[1], 1e-6)
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		got := NormalizeVector([]float32{0, 0})
		assert.Equal(t, []float32{0, 0}, got)
	})

	t.Run("does not modify input", func(t *testing.T) {
		in := []float32{1, 1}
		_ = NormalizeVector(in)
		assert.Equal(t, []float32{1, 1}, in)
	})
}

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	p, err := NewLocalProvider(NewCache(100))
	require.NoError(t, err)

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, ProviderLocal, p.Name())
		assert.Equal(t, LocalDimension, p.Dimension())
		assert.Equal(t, DefaultLocalModel, p.Model())
		assert.NoError(t, p.Close())
	})

	t.Run("deterministic and normalized", func(t *testing.T) {
		a, err := p.Embed(ctx, "Parse the configuration file")
		require.NoError(t, err)
		b, err := p.Embed(ctx, "parse THE configuration-file")
		require.NoError(t, err)

		assert.Len(t, a, LocalDimension)
		assert.Equal(t, a, b, "case and punctuation do not change the vector")
		assert.InDelta(t, 1.0, norm(a), 1e-5)
	})

	t.Run("shared words score higher", func(t *testing.T) {
		vecs, err := p.EmbedBatch(ctx, []string{
			"parse config file",
			"parse config loader",
			"render html template",
		})
		require.NoError(t, err)
		require.Len(t, vecs, 3)

		assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
	})

	t.Run("text without words", func(t *testing.T) {
		vec, err := p.Embed(ctx, "!!! ---")
		require.NoError(t, err)
		assert.Equal(t, 0.0, norm(vec))
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := p.Embed(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("custom dimension", func(t *testing.T) {
		small, err := NewLocalProvider(nil, WithDimension(16))
		require.NoError(t, err)
		vec, err := small.Embed(ctx, "hello world")
		require.NoError(t, err)
		assert.Len(t, vec, 16)
	})

	t.Run("cancelled context", func(t *testing.T) {
		uncached, err := NewLocalProvider(nil)
		require.NoError(t, err)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = uncached.Embed(cctx, "anything")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
