package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "hwbot/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		require.NoError(t, err)
		assert.Nil(t, st)
	}
	_, err := Open(Config{Driver: "redis"}, logx.Nop())
	assert.Error(t, err)
	_, err = Open(Config{Driver: "file"}, logx.Nop())
	assert.Error(t, err)
}

func testStoreRoundTrip(t *testing.T, cfg Config) {
	t.Helper()
	ctx := context.Background()

	st, err := Open(cfg, logx.Nop())
	require.NoError(t, err)
	require.NotNil(t, st)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, st.AppendDelivery(ctx, Delivery{
			At:        base.Add(time.Duration(i) * time.Minute),
			CycleID:   "c" + text,
			Kind:      KindStatus,
			ChatID:    42,
			Watermark: int64(1000 + i),
			Text:      text,
		}))
	}

	got, err := st.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Text)
	assert.Equal(t, "second", got[1].Text)
	assert.Equal(t, int64(1002), got[0].Watermark)
	assert.True(t, got[0].At.Equal(base.Add(2*time.Minute)))
	require.NoError(t, st.Close())

	// Append-only: reopening keeps earlier rows.
	st, err = Open(cfg, logx.Nop())
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.AppendDelivery(ctx, Delivery{Kind: KindError, Text: "fourth"}))
	got, err = st.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "fourth", got[0].Text)
	assert.False(t, got[0].At.IsZero())
}

func TestFileStoreRoundTrip(t *testing.T) {
	testStoreRoundTrip(t, Config{Driver: "file", Path: filepath.Join(t.TempDir(), "data", "hwbot")})
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	testStoreRoundTrip(t, Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "hwbot.db")})
}
