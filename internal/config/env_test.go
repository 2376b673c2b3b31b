package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadEnvFile_YAMLThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  addr: ":9090"
database:
  name: "crud_db"
remote_api:
  base_url: "https://partners.example.com/api/"
  timeout: "3s"
memcache:
  servers: ["127.0.0.1:11211"]
settings:
  support_email: "ops@example.com"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DB_NAME", "override_db")

	env, err := LoadEnvFile(path)
	if err != nil {
		t.Fatalf("LoadEnvFile error: %v", err)
	}
	if env.AppAddr != ":9090" {
		t.Fatalf("AppAddr = %q, want :9090", env.AppAddr)
	}
	if env.DBName != "override_db" {
		t.Fatalf("DBName = %q, env var should win", env.DBName)
	}
	if env.RemoteAPITimeout != 3*time.Second {
		t.Fatalf("RemoteAPITimeout = %v", env.RemoteAPITimeout)
	}
	if len(env.MemcacheServers) != 1 {
		t.Fatalf("MemcacheServers = %v", env.MemcacheServers)
	}
	if v, ok := env.Lookup("support_email"); !ok || v != "ops@example.com" {
		t.Fatalf("Lookup(support_email) = %q, %v", v, ok)
	}
}

func TestLoadEnvFile_MissingFileKeepsDefaults(t *testing.T) {
	env, err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if env.AppAddr == "" || len(env.CORSAllowedOrigins) == 0 {
		t.Fatalf("defaults not applied: %+v", env)
	}
}

func TestDSNCarriesDriverOptions(t *testing.T) {
	env := Env{DBUser: "app", DBPassword: "pw", DBHost: "db:3306", DBName: "scaffold"}
	dsn := env.DSN()
	for _, want := range []string{"app:pw@tcp(db:3306)/scaffold", "parseTime=true", "clientFoundRows=true"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}
