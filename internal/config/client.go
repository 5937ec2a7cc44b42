package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	DefaultServerAddr = "localhost"
)

// ClientConfig is the client shim's on-disk configuration, per spec.md
// §6: a file colocated with the shim, keys server_addr/server_port/
// log_level.
type ClientConfig struct {
	ServerAddr string
	ServerPort uint16
	LogLevel   uint8
}

func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ServerAddr: DefaultServerAddr,
		ServerPort: DefaultListeningPort,
		LogLevel:   DefaultLogLevel,
	}
}

func (c *ClientConfig) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("config: server_addr must not be empty")
	}
	if c.ServerPort == 0 {
		return fmt.Errorf("config: server_port must be nonzero")
	}
	if c.LogLevel > 5 {
		return fmt.Errorf("config: log_level must be in [0,5], got %d", c.LogLevel)
	}
	return nil
}

// LoadClientConfig parses a simple `key=value` file, one entry per line,
// `#`-prefixed lines and blank lines ignored. Unset keys keep their
// default.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cc := DefaultClientConfig()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to open client config at path=%s, err=%w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("config: malformed line %d in %s: %q", lineNum, path, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "server_addr":
			cc.ServerAddr = value
		case "server_port":
			port, perr := strconv.ParseUint(value, 10, 16)
			if perr != nil {
				return nil, fmt.Errorf("config: invalid server_port %q at line %d, err=%w", value, lineNum, perr)
			}
			cc.ServerPort = uint16(port)
		case "log_level":
			level, lerr := strconv.ParseUint(value, 10, 8)
			if lerr != nil {
				return nil, fmt.Errorf("config: invalid log_level %q at line %d, err=%w", value, lineNum, lerr)
			}
			cc.LogLevel = uint8(level)
		default:
			// unrecognized keys are ignored, matching the codec's
			// "unknown content must not crash a peer" tolerance
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: error scanning %s, err=%w", path, err)
	}

	if err := cc.Validate(); err != nil {
		return nil, err
	}

	return cc, nil
}
