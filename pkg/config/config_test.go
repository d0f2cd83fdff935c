package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHasAllDomains(t *testing.T) {
	cfg := Default()
	if len(cfg.Relays) != 3 {
		t.Fatalf("relays = %d", len(cfg.Relays))
	}
	seen := map[string]bool{}
	for _, rc := range cfg.Relays {
		seen[rc.Domain] = true
	}
	for _, d := range []string{"market_data", "signal", "execution"} {
		if !seen[d] {
			t.Fatalf("missing domain %s", d)
		}
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tradewire.yaml")
	yaml := `
app_name: test-relay
log:
  level: debug
  format: json
relays:
  - domain: market_data
    listen: ["mem://md"]
    queue_size: 128
  - domain: execution
    listen: ["unix:///tmp/x.sock", "tcp://127.0.0.1:9200"]
    policy: audit
    backpressure: block
    audit:
      path: "audit/exec.cbor"
      max_size_mb: 25
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != "test-relay" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.Relays) != 2 {
		t.Fatalf("relays = %d", len(cfg.Relays))
	}
	md := cfg.Relays[0]
	if md.Domain != "market_data" || md.QueueSize != 128 || len(md.Listen) != 1 {
		t.Fatalf("md = %+v", md)
	}
	ex := cfg.Relays[1]
	if ex.Policy != "audit" || ex.Backpressure != "block" || ex.Audit.Path != "audit/exec.cbor" || ex.Audit.MaxSizeMB != 25 {
		t.Fatalf("ex = %+v", ex)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		return p
	}

	if _, err := Load(write("domain.yaml", "relays:\n  - domain: bogus\n    listen: [\"mem://x\"]\n")); err == nil {
		t.Fatalf("bad domain accepted")
	}
	if _, err := Load(write("listen.yaml", "relays:\n  - domain: signal\n")); err == nil {
		t.Fatalf("missing listen accepted")
	}
	if _, err := Load(write("scheme.yaml", "relays:\n  - domain: signal\n    listen: [\"/tmp/x.sock\"]\n")); err == nil {
		t.Fatalf("schemeless address accepted")
	}
	if _, err := Load(write("level.yaml", "log:\n  level: loud\n")); err == nil {
		t.Fatalf("bad log level accepted")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TRADEWIRE_LOG_LEVEL", "error")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("level = %q", cfg.Log.Level)
	}
}
