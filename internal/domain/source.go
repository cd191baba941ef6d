package domain

import (
	"fmt"
	"strings"
)

// Supported source drivers.
const (
	DriverOracle   = "oracle"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverDuckDB   = "duckdb"
	DriverCSV      = "csv"
)

// Drivers lists every supported driver name.
var Drivers = []string{DriverOracle, DriverPostgres, DriverMySQL, DriverSQLite, DriverDuckDB, DriverCSV}

// SourceConfig describes how to reach one comparison source. Either DSN is
// set, or it is assembled from the discrete connection fields.
type SourceConfig struct {
	Name        string `yaml:"name" json:"name"`
	Driver      string `yaml:"driver" json:"driver"`
	DSN         string `yaml:"dsn,omitempty" json:"-"`
	Host        string `yaml:"host,omitempty" json:"host,omitempty"`
	Port        int    `yaml:"port,omitempty" json:"port,omitempty"`
	ServiceName string `yaml:"service_name,omitempty" json:"service_name,omitempty"`
	User        string `yaml:"user,omitempty" json:"user,omitempty"`
	Password    string `yaml:"password,omitempty" json:"-"`
	Owner       string `yaml:"owner,omitempty" json:"owner,omitempty"`

	// Origin records where the source was defined, e.g. "env:DES_COR_V7" or
	// a sources file path.
	Origin string `yaml:"-" json:"origin,omitempty"`
}

// Validate checks that the source is complete enough to be collected.
func (s SourceConfig) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrValidation("source name is required")
	}
	if !knownDriver(s.Driver) {
		return ErrValidation("source %s: unsupported driver %q (supported: %s)", s.Name, s.Driver, strings.Join(Drivers, ", "))
	}
	if s.DSN != "" {
		return nil
	}
	switch s.Driver {
	case DriverSQLite, DriverDuckDB, DriverCSV:
		return ErrValidation("source %s: dsn is required for driver %s", s.Name, s.Driver)
	}
	if s.Host == "" {
		return ErrValidation("source %s: host or dsn is required", s.Name)
	}
	if s.User == "" {
		return ErrValidation("source %s: user is required", s.Name)
	}
	return nil
}

// Address renders a password-free description for listings and logs.
func (s SourceConfig) Address() string {
	if s.DSN != "" {
		if s.Driver == DriverSQLite || s.Driver == DriverDuckDB || s.Driver == DriverCSV {
			return s.DSN
		}
		return "(dsn)"
	}
	addr := s.Host
	if s.Port > 0 {
		addr = fmt.Sprintf("%s:%d", s.Host, s.Port)
	}
	if s.ServiceName != "" {
		addr += "/" + s.ServiceName
	}
	if s.User != "" {
		addr = s.User + "@" + addr
	}
	return addr
}

func knownDriver(d string) bool {
	for _, x := range Drivers {
		if x == d {
			return true
		}
	}
	return false
}
