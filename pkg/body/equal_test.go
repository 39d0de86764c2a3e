package body

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-body/pkg/streamsource"
)

func assertEqualBodies(t *testing.T, want bool, a, b Body) {
	t.Helper()
	eq, err := a.Equal(b)
	require.NoError(t, err)
	assert.Equal(t, want, eq, "a.Equal(b)")

	eq, err = b.Equal(a)
	require.NoError(t, err)
	assert.Equal(t, want, eq, "b.Equal(a)")

	if want {
		ha, err := a.Hash()
		require.NoError(t, err)
		hb, err := b.Hash()
		require.NoError(t, err)
		assert.Equal(t, ha, hb, "equal bodies must hash alike")
	}
}

func TestEqual(t *testing.T) {
	data := []byte(`{"k":"v"}`)

	tests := []struct {
		name string
		a, b Body
		want bool
	}{
		{"SameBytes", FromBytes(data), FromBytes(bytes.Clone(data)), true},
		{"DifferentBytes", FromBytes([]byte("a")), FromBytes([]byte("b")), false},
		{"BinaryVersusText", FromBytes(data), FromString(string(data)), false},
		{"BinaryVersusDeclaredText", FromBytes(data), OfBinaryOrText(data, "text/plain"), false},
		{"TextVersusJSONBytes", FromString(string(data)), FromJSONBytes(data), true},
		{"TextVersusDeclaredText", FromString("abc"), OfBinaryOrText([]byte("abc"), "application/xml"), true},
		{"BytesVersusSource", FromBytes([]byte("aaa")), FromSource(mustRepeat(t, 'a', 3)), true},
		{"AbsentVersusAbsent", None(), FromBytes(nil), true},
		{"AbsentVersusEmpty", None(), FromBytes([]byte{}), false},
		{"EmptyVersusEmpty", FromBytes([]byte{}), FromSource(streamsource.Empty()), true},
		{"PrefixIsNotEqual", FromBytes([]byte("abc")), FromBytes([]byte("abcd")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqualBodies(t, tt.want, tt.a, tt.b)
		})
	}

	t.Run("JSONVersusText", func(t *testing.T) {
		j, err := FromJSON([]string{"x"})
		require.NoError(t, err)
		assertEqualBodies(t, true, j, FromString(`["x"]`))
	})

	t.Run("TextEncodingIgnored", func(t *testing.T) {
		// Same bytes produced from different strings and encodings
		latin := OfBinaryOrText([]byte{0xe9}, "text/plain; charset=iso-8859-1")
		raw := OfBinaryOrText([]byte{0xe9}, "text/plain")
		assertEqualBodies(t, true, latin, raw)
	})

	t.Run("Reflexive", func(t *testing.T) {
		b := FromString("self")
		assertEqualBodies(t, true, b, b)
	})
}

func TestHashDistinguishes(t *testing.T) {
	bin, err := FromBytes([]byte("x")).Hash()
	require.NoError(t, err)
	txt, err := FromString("x").Hash()
	require.NoError(t, err)
	assert.NotEqual(t, bin, txt)

	absent, err := None().Hash()
	require.NoError(t, err)
	empty, err := FromBytes([]byte{}).Hash()
	require.NoError(t, err)
	assert.NotEqual(t, absent, empty)
}

func TestEqualLargeSyntheticSources(t *testing.T) {
	const size = 32 << 20

	a := FromSource(mustRepeat(t, 'z', size))
	b := FromSource(mustRepeat(t, 'z', size))
	assertEqualBodies(t, true, a, b)

	shorter := FromSource(mustRepeat(t, 'z', size-1))
	assertEqualBodies(t, false, a, shorter)

	other := FromSource(mustRepeat(t, 'y', size))
	assertEqualBodies(t, false, a, other)

	// Same length, differing only in the final byte
	lastDiffers := FromSource(streamsource.Func(func() (io.ReadCloser, error) {
		head, _ := mustRepeat(t, 'z', size-1).Open()
		return io.NopCloser(io.MultiReader(head, strings.NewReader("!"))), nil
	}))
	assertEqualBodies(t, false, a, lastDiffers)
}

func TestEqualRereadsSource(t *testing.T) {
	opens := 0
	src := streamsource.Func(func() (io.ReadCloser, error) {
		opens++
		return io.NopCloser(strings.NewReader("counted")), nil
	})
	b := FromSource(src)

	for i := 0; i < 3; i++ {
		eq, err := b.Equal(FromBytes([]byte("counted")))
		require.NoError(t, err)
		assert.True(t, eq)
	}
	assert.Equal(t, 3, opens)
}

func mustRepeat(t testing.TB, c byte, n int64) streamsource.Source {
	t.Helper()
	src, err := streamsource.ForRepeatingByte(c, n)
	require.NoError(t, err)
	return src
}

func BenchmarkEqualSynthetic(b *testing.B) {
	x := FromSource(mustRepeat(b, 'b', 1<<20))
	y := FromSource(mustRepeat(b, 'b', 1<<20))
	b.SetBytes(1 << 20)
	for i := 0; i < b.N; i++ {
		if eq, err := x.Equal(y); err != nil || !eq {
			b.Fatal("expected equal bodies")
		}
	}
}
