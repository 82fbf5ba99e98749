package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL      string `yaml:"ttl"`
		RoomSize int    `yaml:"roomSize"`
	} `yaml:"questions"`
	Game struct {
		ModeratorName    string `yaml:"moderatorName"`
		PowerCost        int    `yaml:"powerCost"`
		FreezeDuration   string `yaml:"freezeDuration"`
		PowerUnlockScore int    `yaml:"powerUnlockScore"`
	} `yaml:"game"`
	Event Branding `yaml:"event"`
}

// Branding is the static event identity served verbatim to clients; the game
// core treats it as opaque.
type Branding struct {
	Name   string `yaml:"name" json:"eventName"`
	Colors struct {
		Background string `yaml:"background" json:"background"`
		Primary    string `yaml:"primary" json:"primary"`
		Accent     string `yaml:"accent" json:"accent"`
	} `yaml:"colors" json:"colors"`
	LogoURL string `yaml:"logoUrl" json:"logoUrl"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
