package database

import (
	"net"
	"net/url"

	coreconfig "github.com/m3rciful/promptbinder/core/config"
)

// Config holds Postgres connection settings.
type Config = coreconfig.DatabaseConfig

// URL renders cfg as a postgres:// URL accepted by lib/pq and golang-migrate.
func URL(cfg Config) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}
