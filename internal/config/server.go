// Package config holds the server CLI surface and the client's on-disk
// key=value config, per spec.md §6. Grounded on go-elect's
// config/config.go for the Validate()-with-fmt.Errorf idiom, and on
// longhorn-longhorn-engine/app's github.com/urfave/cli usage for the
// server's flag surface.
package config

import (
	"fmt"

	"github.com/urfave/cli"
)

const (
	DefaultListeningPort uint16 = 2056
	DefaultLogLevel      uint8  = 4
)

// ServerConfig is the server process's parsed CLI configuration.
type ServerConfig struct {
	ExtIOPath     string
	ListeningPort uint16
	LogLevel      uint8
}

func (c *ServerConfig) Validate() error {
	if c.ExtIOPath == "" {
		return fmt.Errorf("config: extio_path is required")
	}
	if c.ListeningPort == 0 {
		return fmt.Errorf("config: listening_port must be nonzero")
	}
	if c.LogLevel > 5 {
		return fmt.Errorf("config: log_level must be in [0,5], got %d", c.LogLevel)
	}
	return nil
}

// ServerFlags returns the urfave/cli flag set for the server command.
func ServerFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "extio_path",
			Usage: "path to the vendor ExtIO shared library",
		},
		cli.IntFlag{
			Name:  "listening_port",
			Value: int(DefaultListeningPort),
			Usage: "TCP port to listen on",
		},
		cli.IntFlag{
			Name:  "log_level",
			Value: int(DefaultLogLevel),
			Usage: "log verbosity, 0 (silent) through 5 (trace)",
		},
	}
}

// ServerConfigFromContext builds and validates a ServerConfig from a
// parsed cli.Context.
func ServerConfigFromContext(c *cli.Context) (*ServerConfig, error) {
	sc := &ServerConfig{
		ExtIOPath:     c.String("extio_path"),
		ListeningPort: uint16(c.Int("listening_port")),
		LogLevel:      uint8(c.Int("log_level")),
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}
