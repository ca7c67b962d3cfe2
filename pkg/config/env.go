package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Overrides are settings that deployments commonly inject through the
// environment instead of a config file. Zero values leave the file
// configuration alone.
type Overrides struct {
	WebPort       int    `env:"SORTIE_WEB_PORT"`
	DesktopPort   int    `env:"SORTIE_DESKTOP_PORT"`
	StatsDB       string `env:"SORTIE_STATS_DB"`
	RedisAddr     string `env:"SORTIE_REDIS_ADDR"`
	OwnerPassword string `env:"SORTIE_OWNER_PASSWORD"`
	AdminPassword string `env:"SORTIE_ADMIN_PASSWORD"`
}

func ParseOverrides() (Overrides, error) {
	var overrides Overrides
	if err := env.Parse(&overrides); err != nil {
		return overrides, fmt.Errorf("parse env: %w", err)
	}
	return overrides, nil
}

func (o Overrides) Apply(config *Config) {
	server := &config.Server
	if o.WebPort != 0 {
		server.Ingress.Web.Port = o.WebPort
	}
	if o.DesktopPort != 0 {
		server.Ingress.Desktop.Port = o.DesktopPort
	}
	if o.StatsDB != "" {
		server.Stats.DBPath = o.StatsDB
	}
	if o.RedisAddr != "" {
		server.Bans.Redis.Addr = o.RedisAddr
	}
	if o.OwnerPassword != "" {
		server.Game.Passwords.Owner = o.OwnerPassword
	}
	if o.AdminPassword != "" {
		server.Game.Passwords.Admin = o.AdminPassword
	}
}
