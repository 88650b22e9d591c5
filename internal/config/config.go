// Package config loads the optional HCL configuration file that
// carries catalog and object-store connection settings.
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the top-level configuration.
type Config struct {
	Catalog *Catalog `hcl:"catalog,block"`
	Store   *Store   `hcl:"store,block"`
}

// Catalog holds catalog database settings.
type Catalog struct {
	// Driver is "postgres" or "sqlite".
	Driver string `hcl:"driver,optional"`

	// DSN is the connection string (postgres key=value DSN or sqlite
	// file path).
	DSN string `hcl:"dsn"`

	MaxIdleConns int `hcl:"max_idle_conns,optional"`
	MaxOpenConns int `hcl:"max_open_conns,optional"`
}

// Store holds object-store settings shared by all backends.
type Store struct {
	// Endpoint is a custom S3-compatible endpoint.
	Endpoint string `hcl:"endpoint,optional"`

	// Region is the S3 region.
	Region string `hcl:"region,optional"`

	// NoSignRequest requests anonymous access.
	NoSignRequest bool `hcl:"no_sign_request,optional"`

	// MaxObjectSizeMB caps document reads, in MiB.
	MaxObjectSizeMB int `hcl:"max_object_size_mb,optional"`
}

// Load decodes an HCL config file.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return &cfg, nil
}
