package replay

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	script := `
# warm up
0s    free
1.5s  busy
4s    free
`
	events, err := parse(strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 1500*time.Millisecond, events[1].at)
	assert.True(t, events[1].busy)
	assert.False(t, events[2].busy)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		script string
	}{
		{"garbage", "0s free\nnope\n"},
		{"bad offset", "soon busy\n"},
		{"bad state", "0s maybe\n"},
		{"out of order", "5s busy\n1s free\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parse(strings.NewReader(tc.script))
			assert.Error(t, err)
		})
	}
}

func TestReadBusyFollowsScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script")
	require.NoError(t, os.WriteFile(path, []byte("1s busy\n3s free\n"), 0o644))

	l, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	at := func(offset time.Duration) {
		l.now = func() time.Time { return l.start.Add(offset) }
	}

	for _, tc := range []struct {
		offset time.Duration
		busy   bool
	}{
		{0, false},
		{999 * time.Millisecond, false},
		{time.Second, true},
		{2 * time.Second, true},
		{3 * time.Second, false},
		{time.Hour, false},
	} {
		at(tc.offset)
		busy, err := l.ReadBusy()
		require.NoError(t, err)
		assert.Equal(t, tc.busy, busy, "offset %s", tc.offset)
	}
}

func TestSetTransmit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script")
	require.NoError(t, os.WriteFile(path, []byte("0s free\n"), 0o644))

	l, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	assert.False(t, l.Transmitting())
	require.NoError(t, l.SetTransmit(true))
	assert.True(t, l.Transmitting())
	require.NoError(t, l.SetTransmit(false))
	assert.False(t, l.Transmitting())
}
