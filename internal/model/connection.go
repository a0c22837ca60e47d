package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SSHAuthMethod selects how the tunnel authenticates against the bastion
type SSHAuthMethod string

const (
	SSHAuthPassword   SSHAuthMethod = "password"
	SSHAuthPrivateKey SSHAuthMethod = "private_key"
	SSHAuthAgent      SSHAuthMethod = "agent"
)

// SSHTunnelConfig describes an optional SSH hop in front of the database
type SSHTunnelConfig struct {
	Host          string        `json:"host" validate:"required"`
	Port          int           `json:"port" validate:"required,min=1,max=65535"`
	Username      string        `json:"username" validate:"required"`
	AuthMethod    SSHAuthMethod `json:"authMethod" validate:"required,oneof=password private_key agent"`
	Password      string        `json:"password,omitempty"`
	PrivateKey    string        `json:"privateKey,omitempty"` // PEM key material, not a path
	KeyPassphrase string        `json:"keyPassphrase,omitempty"`
}

// ConnectionConfig describes one database connection target. It is supplied
// per call; the adapters hold no long-lived connection state between calls.
type ConnectionConfig struct {
	Dialect  Dialect `json:"dialect" validate:"required"`
	Host     string  `json:"host" validate:"required"`
	Port     int     `json:"port" validate:"omitempty,min=1,max=65535"`
	Database string  `json:"database" validate:"required"`
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password,omitempty"`

	// SSLMode is dialect-specific: sslmode for postgres, tls for mysql,
	// encrypt for sqlserver. Empty picks the driver default.
	SSLMode string `json:"sslMode,omitempty"`

	SSHTunnel *SSHTunnelConfig `json:"sshTunnel,omitempty"`
}

// EffectivePort returns the configured port, falling back to the dialect's
// conventional default when unset
func (c *ConnectionConfig) EffectivePort() int {
	if c.Port > 0 {
		return c.Port
	}
	return c.Dialect.DefaultPort()
}

// Fingerprint returns a stable identity hash for cache keying. It covers
// what determines WHICH catalog is visible (dialect, host, port, database,
// user, tunnel endpoint) and deliberately excludes credentials and other
// transient settings.
func (c *ConnectionConfig) Fingerprint() string {
	ssh := ""
	if c.SSHTunnel != nil {
		ssh = fmt.Sprintf("%s:%d@%s", c.SSHTunnel.Host, c.SSHTunnel.Port, c.SSHTunnel.Username)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%s|%s|%s",
		c.Dialect, c.Host, c.EffectivePort(), c.Database, c.Username, ssh)))
	return hex.EncodeToString(sum[:])
}
