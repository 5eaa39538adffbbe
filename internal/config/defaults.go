package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite3"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/shindan/data/shindan.db"
	}
	if cfg.Storage.QueryTimeout == 0 {
		cfg.Storage.QueryTimeout = 10 * time.Second
	}
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = "localhost:6379"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 10 * time.Minute
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "shindan:"
	}
	cfg.Ranking.ApplyDefaults()
	cfg.Chat.ApplyDefaults()
	if cfg.Session.Timeout == 0 {
		cfg.Session.Timeout = 5 * time.Second
	}
	if cfg.Session.LoggingEnabled == nil {
		t := true
		cfg.Session.LoggingEnabled = &t
	}
	if cfg.Knowledge.ImportOnStart == nil {
		t := true
		cfg.Knowledge.ImportOnStart = &t
	}
}
