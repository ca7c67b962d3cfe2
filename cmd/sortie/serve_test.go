package main

import (
	"testing"

	"github.com/cfoust/sortie/pkg/bans"
	"github.com/cfoust/sortie/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SORTIE_WEB_PORT", "8080")
	t.Setenv("SORTIE_ADMIN_PASSWORD", "hunter2")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Ingress.Web.Port)
	assert.Equal(t, "hunter2", cfg.Server.Game.Passwords.Admin)
}

func TestBanStore(t *testing.T) {
	assert.IsType(t, &bans.MemoryStore{}, banStore(config.BanSettings{}))
	assert.Equal(t, bans.FSStore("bans.json"), banStore(config.BanSettings{File: "bans.json"}))

	settings := config.BanSettings{File: "bans.json"}
	settings.Redis.Addr = "localhost:6379"
	assert.IsType(t, &bans.RedisStore{}, banStore(settings))
}
