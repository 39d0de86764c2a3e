// Package streamsourcetest provides contract checks for streamsource.Source
// implementations.
package streamsourcetest

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-body/pkg/streamsource"
)

// AssertRepeatable opens src twice in sequence and once per goroutine, and
// checks every reader yields want. It returns false if any check failed.
func AssertRepeatable(t testing.TB, src streamsource.Source, want []byte) bool {
	t.Helper()

	first := drain(t, src)
	second := drain(t, src)
	ok := assert.Equal(t, want, first, "first open")
	ok = assert.Equal(t, want, second, "second open") && ok

	// Interleave two open readers to catch shared read state
	a, err := src.Open()
	require.NoError(t, err)
	b, err := src.Open()
	require.NoError(t, err)
	if a == nil || b == nil {
		return assert.Nil(t, want, "source reported no content") && ok
	}
	defer a.Close()
	defer b.Close()

	head := make([]byte, 1)
	if len(want) > 0 {
		_, err = io.ReadFull(a, head)
		require.NoError(t, err)
	}
	fromB, err := io.ReadAll(b)
	require.NoError(t, err)
	ok = assert.Equal(t, want, fromB, "reader opened while another was in progress") && ok

	const workers = 4
	results := make([][]byte, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = streamsource.ReadAll(src)
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if !assert.NoError(t, errs[i], "concurrent open %d", i) {
			ok = false
			continue
		}
		ok = assert.Equal(t, want, got, "concurrent open %d", i) && ok
	}
	return ok
}

func drain(t testing.TB, src streamsource.Source) []byte {
	t.Helper()
	data, err := streamsource.ReadAll(src)
	require.NoError(t, err)
	return data
}
