package postgis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/publibase/publibase/internal"
)

// ConnectionsPath is the path of the connection store relative to the user's
// home directory.
const ConnectionsPath = ".publibase/connections.json"

type (
	// ConnectionStore is a JSON file in a user's home dir that stores named
	// database connection strings.
	ConnectionStore string

	// Directories provides the user's home directory.
	Directories interface {
		UserHomeDir() (string, error)
	}

	// Connection is a named database connection string.
	Connection struct {
		Name       string
		ConnString string
	}

	connectionsConfig struct {
		Connections map[string]string `json:"connections"`
	}

	osDirectories struct{}
)

// OSDirectories locates the home directory of the current user.
var OSDirectories Directories = osDirectories{}

func (osDirectories) UserHomeDir() (string, error) { return os.UserHomeDir() }

// NewConnectionStore is a constructor for ConnectionStore
func NewConnectionStore(dirs Directories) (ConnectionStore, error) {
	home, err := dirs.UserHomeDir()
	if err != nil {
		return "", err
	}
	return ConnectionStore(filepath.Join(home, ConnectionsPath)), nil
}

// Add saves a connection string under the given name, overwriting any existing
// connection with the same name.
func (s ConnectionStore) Add(name, connString string) error {
	if name == "" {
		return internal.ErrRequiredName
	}
	if _, err := ParseConnConfig(connString); err != nil {
		return err
	}
	config, err := s.read()
	if err != nil {
		return err
	}
	config.Connections[name] = connString
	return s.write(config)
}

// Remove deletes the named connection.
func (s ConnectionStore) Remove(name string) error {
	config, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := config.Connections[name]; !ok {
		return fmt.Errorf("connection %s: %w", name, internal.ErrResourceNotFound)
	}
	delete(config.Connections, name)
	return s.write(config)
}

// List returns the stored connections in name order.
func (s ConnectionStore) List() ([]Connection, error) {
	config, err := s.read()
	if err != nil {
		return nil, err
	}
	conns := make([]Connection, 0, len(config.Connections))
	for name, connString := range config.Connections {
		conns = append(conns, Connection{Name: name, ConnString: connString})
	}
	slices.SortFunc(conns, func(a, b Connection) int {
		return strings.Compare(a.Name, b.Name)
	})
	return conns, nil
}

// Resolve returns the connection string for a stored connection name. A
// value that is not a stored name but looks like a connection string, either
// a URL or a DSN, is returned as is.
func (s ConnectionStore) Resolve(nameOrConnString string) (string, error) {
	config, err := s.read()
	if err != nil {
		return "", fmt.Errorf("reading connections: %w", err)
	}
	if connString, ok := config.Connections[nameOrConnString]; ok {
		return connString, nil
	}
	if isConnString(nameOrConnString) {
		return nameOrConnString, nil
	}
	return "", fmt.Errorf("connection %s not found in %s: %w", nameOrConnString, s, internal.ErrResourceNotFound)
}

func isConnString(s string) bool {
	return strings.HasPrefix(s, "postgres://") ||
		strings.HasPrefix(s, "postgresql://") ||
		strings.Contains(s, "=")
}

func (s ConnectionStore) read() (*connectionsConfig, error) {
	config := connectionsConfig{Connections: make(map[string]string)}

	// Read any existing file contents
	data, err := os.ReadFile(string(s))
	if err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
		if config.Connections == nil {
			config.Connections = make(map[string]string)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return &config, nil
}

func (s ConnectionStore) write(config *connectionsConfig) error {
	data, err := json.MarshalIndent(&config, "", "  ")
	if err != nil {
		return err
	}

	// Ensure all parent directories of config file exist
	if err := os.MkdirAll(filepath.Dir(string(s)), 0o775); err != nil {
		return err
	}
	return os.WriteFile(string(s), data, 0o600)
}
