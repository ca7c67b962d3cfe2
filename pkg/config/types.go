package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration reads Go duration strings such as "1500ms" or "10m".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Extent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Passwords struct {
	Owner       string `json:"owner"`
	Admin       string `json:"admin"`
	LevelChange string `json:"levelChange"`
}

type GameSettings struct {
	MaxGameTime            Duration  `json:"maxGameTime"`
	DefaultGameTime        Duration  `json:"defaultGameTime"`
	RespawnDelay           Duration  `json:"respawnDelay"`
	SwitchTeamsDelay       Duration  `json:"switchTeamsDelay"`
	ScoreboardUpdatePeriod Duration  `json:"scoreboardUpdatePeriod"`
	TimeSyncPeriod         Duration  `json:"timeSyncPeriod"`
	MaxPing                Duration  `json:"maxPing"`
	KickIdleAtGameOver     bool      `json:"kickIdleAtGameOver"`
	// Players who have not moved for this long wait to spawn until they
	// ask to. Zero disables it.
	IdleSpawnDelay Duration `json:"idleSpawnDelay"`
	Intermission           Duration  `json:"intermission"`
	VoiceChat              bool      `json:"voiceChat"`
	RevealBots             bool      `json:"revealBots"`
	Passwords              Passwords `json:"passwords"`
}

type BotSettings struct {
	MinBalancedPlayers int      `json:"minBalancedPlayers"`
	BalanceTeams       bool     `json:"balanceTeams"`
	AlwaysBalanceTeams bool     `json:"alwaysBalanceTeams"`
	MaxBots            int      `json:"maxBots"`
	DefaultScript      string   `json:"defaultScript"`
	BalancePeriod      Duration `json:"balancePeriod"`
	FirstBalance       Duration `json:"firstBalance"`
	// Allows anyone to list bots with ShowBots
	Testing bool `json:"testing"`
}

type ScopeSettings struct {
	Normal        Extent  `json:"normal"`
	Sensor        Extent  `json:"sensor"`
	SpyBug        float64 `json:"spyBug"`
	PassiveVisual Extent  `json:"passiveVisual"`
	PassiveSensor Extent  `json:"passiveSensor"`
}

type RedisSettings struct {
	Addr string `json:"addr"`
	Key  string `json:"key"`
}

type BanSettings struct {
	DefaultDuration Duration      `json:"defaultDuration"`
	KickDuration    Duration      `json:"kickDuration"`
	File            string        `json:"file"`
	Redis           RedisSettings `json:"redis"`
}

type StatsSettings struct {
	Enabled    bool   `json:"enabled"`
	DBPath     string `json:"dbPath"`
	ArchiveDir string `json:"archiveDir"`
}

type RateLimit struct {
	PerSecond float64 `json:"perSecond"`
	Burst     int     `json:"burst"`
}

type Ingress struct {
	Web struct {
		Port int `json:"port"`
	} `json:"web"`
	Desktop struct {
		Port  int `json:"port"`
		Peers int `json:"peers"`
	} `json:"desktop"`
	RateLimit RateLimit `json:"rateLimit"`
}

type Wall struct {
	Vertices []float32 `json:"vertices"`
	Width    float32   `json:"width"`
	Solid    bool      `json:"solid"`
}

type Team struct {
	Name   string       `json:"name"`
	Color  string       `json:"color"`
	Spawns [][2]float64 `json:"spawns"`
}

type Level struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Credits     string     `json:"credits"`
	Mode        string     `json:"mode"`
	Args        string     `json:"args"`
	Specials    string     `json:"specials"`
	Bounds      [4]float32 `json:"bounds"`
	Walls       []Wall     `json:"walls"`
	Teams       []Team     `json:"teams"`
}

type ServerSettings struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	TickInterval Duration      `json:"tickInterval"`
	Game         GameSettings  `json:"game"`
	Bots         BotSettings   `json:"bots"`
	Scope        ScopeSettings `json:"scope"`
	Bans         BanSettings   `json:"bans"`
	Stats        StatsSettings `json:"stats"`
	Ingress      Ingress       `json:"ingress"`
	Levels       []Level       `json:"levels"`
}

type Config struct {
	Server ServerSettings `json:"server"`
}
