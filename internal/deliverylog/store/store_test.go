package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/dunning/internal/config"
	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
	"github.com/MrJamesThe3rd/dunning/internal/deliverylog/store"
)

func TestOpen_File(t *testing.T) {
	cfg := &config.Config{}
	cfg.Membership.Backend = "file"
	cfg.Paths.LogDir = t.TempDir()

	m, closeFn, err := store.Open(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	require.IsType(t, &deliverylog.FileMembership{}, m)
	require.NoError(t, m.Append(context.Background(), "1_0"))
	assert.FileExists(t, filepath.Join(cfg.Paths.LogDir, "sent_log.txt"))
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Membership.Backend = "sqlite"

	_, _, err := store.Open(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestOpen_RedisBadURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.Membership.Backend = "redis"
	cfg.Membership.RedisURL = "not-a-url"

	_, _, err := store.Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}
