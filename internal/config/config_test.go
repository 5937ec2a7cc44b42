package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestServerConfigValidateRequiresExtIOPath(t *testing.T) {
	sc := &ServerConfig{ListeningPort: 2056, LogLevel: 4}
	if err := sc.Validate(); err == nil {
		t.Fatalf("expected error for missing extio_path")
	}
}

func TestServerConfigValidateRejectsBadLogLevel(t *testing.T) {
	sc := &ServerConfig{ExtIOPath: "/tmp/vendor.so", ListeningPort: 2056, LogLevel: 9}
	if err := sc.Validate(); err == nil {
		t.Fatalf("expected error for out-of-range log_level")
	}
}

func TestLoadClientConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.conf")
	if err := os.WriteFile(path, []byte("# comment\n\nlog_level=2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cc, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cc.ServerAddr != DefaultServerAddr {
		t.Fatalf("expected default server_addr, got %s", cc.ServerAddr)
	}
	if cc.ServerPort != DefaultListeningPort {
		t.Fatalf("expected default server_port, got %d", cc.ServerPort)
	}
	if cc.LogLevel != 2 {
		t.Fatalf("expected log_level 2, got %d", cc.LogLevel)
	}
}

func TestLoadClientConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.conf")
	content := "server_addr=192.168.1.10\nserver_port=9000\nlog_level=1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cc, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cc.ServerAddr != "192.168.1.10" {
		t.Fatalf("unexpected server_addr: %s", cc.ServerAddr)
	}
	if cc.ServerPort != 9000 {
		t.Fatalf("unexpected server_port: %d", cc.ServerPort)
	}
}

func TestLoadClientConfigRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.conf")
	if err := os.WriteFile(path, []byte("not-a-valid-line\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadClientConfig(path); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}
