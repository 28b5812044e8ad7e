package postgis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const redacted = "xxxxx"

// ConnConfig holds the parameters of a PostGIS connection.
type ConnConfig struct {
	Host     string
	Port     uint16
	Database string
	User     string
	Password string
}

// ParseConnConfig parses a libpq connection string, either a URL or a DSN.
// Parameters missing from the string are filled from the PG* environment
// variables and the password file, as libpq does.
func ParseConnConfig(connString string) (ConnConfig, error) {
	cfg, err := pgconn.ParseConfig(connString)
	if err != nil {
		return ConnConfig{}, fmt.Errorf("parsing connection string: %w", err)
	}
	return ConnConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Database,
		User:     cfg.User,
		Password: cfg.Password,
	}, nil
}

// DSN renders the config as a libpq keyword/value connection string.
func (c ConnConfig) DSN() string {
	return c.dsn(c.Password, "")
}

// OGRSource renders the config as an OGR PostgreSQL datasource, restricted to
// the given schema if non-empty, e.g. PG:host=localhost dbname=gis
// schemas=bc250_base port=5432 user=postgres password=secret
func (c ConnConfig) OGRSource(schema string) string {
	return "PG:" + c.dsn(c.Password, schema)
}

// Redacted returns a copy of the config with the password masked, for
// logging and display.
func (c ConnConfig) Redacted() ConnConfig {
	if c.Password != "" {
		c.Password = redacted
	}
	return c
}

// RedactedOGRSource is OGRSource with the password masked, for logging.
func (c ConnConfig) RedactedOGRSource(schema string) string {
	return c.Redacted().OGRSource(schema)
}

func (c ConnConfig) String() string {
	return c.RedactedOGRSource("")
}

func (c ConnConfig) dsn(password, schema string) string {
	var params []string
	add := func(key, value string) {
		if value != "" {
			params = append(params, key+"="+quoteValue(value))
		}
	}
	add("host", c.Host)
	add("dbname", c.Database)
	add("schemas", schema)
	if c.Port != 0 {
		add("port", strconv.Itoa(int(c.Port)))
	}
	add("user", c.User)
	add("password", password)
	return strings.Join(params, " ")
}

// quoteValue quotes a connection string value containing spaces, quotes or
// backslashes.
func quoteValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
