package geoserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/logr"
	"github.com/spf13/pflag"
)

const (
	DefaultURL      = "http://localhost:8080/geoserver"
	DefaultUser     = "admin"
	DefaultPassword = "geoserver"
)

// Config provides configuration details to the GeoServer client.
type Config struct {
	// URL of GeoServer, e.g. http://localhost:8080/geoserver. The URL of the
	// web admin interface, http://localhost:8080/geoserver/web/, is also
	// accepted.
	URL string
	// User and Password for HTTP basic authentication. An empty user
	// disables authentication.
	User     string
	Password string
	// Toggle retrying requests upon encountering transient errors.
	RetryRequests bool
	// Override default http transport
	Transport http.RoundTripper
	// Logger for logging requests and retries
	Logger logr.Logger
}

// NewConfigFromFlags adds GeoServer flags to the flagset; once the flagset is
// parsed the returned config is populated.
func NewConfigFromFlags(flags *pflag.FlagSet) *Config {
	cfg := Config{}
	flags.StringVar(&cfg.URL, "geoserver-url", DefaultURL, "GeoServer URL, e.g. http://localhost:8080/geoserver/web/")
	flags.StringVar(&cfg.User, "geoserver-user", DefaultUser, "GeoServer user. Leave empty to disable authentication.")
	flags.StringVar(&cfg.Password, "geoserver-password", DefaultPassword, "GeoServer password")
	flags.BoolVar(&cfg.RetryRequests, "geoserver-retry", false, "Retry GeoServer requests upon transient errors")
	return &cfg
}

// ParseBaseURL parses the GeoServer URL, stripping the path of the web admin
// interface so that the REST API can be addressed relative to it. A URL
// without a scheme is assumed to use https.
func ParseBaseURL(raw string) (*url.URL, error) {
	web, err := internal.NewWebURL(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid geoserver url: %w", err)
	}
	u := web.URL
	if u.Host == "" {
		return nil, fmt.Errorf("invalid geoserver url: %q: host is required", raw)
	}
	path := strings.TrimRight(u.Path, "/")
	path = strings.TrimSuffix(path, "/web")
	u.Path = strings.TrimRight(path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
