package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Env struct {
	AppAddr string
	GinMode string

	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	JWTSecret          string
	CORSAllowedOrigins []string

	RemoteAPIBaseURL   string
	RemoteAPIAuthCode  string
	RemoteAPIPartnerID string
	RemoteAPITimeout   time.Duration

	MemcacheServers []string

	// raw keeps every value that was loaded so settings can fall back to it.
	raw map[string]string
}

// fileConfig mirrors the optional YAML file pointed to by CONFIG_FILE.
type fileConfig struct {
	App struct {
		Addr    string `yaml:"addr"`
		GinMode string `yaml:"gin_mode"`
	} `yaml:"app"`
	Database struct {
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Host     string `yaml:"host"`
		Name     string `yaml:"name"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RemoteAPI struct {
		BaseURL   string `yaml:"base_url"`
		AuthCode  string `yaml:"auth_code"`
		PartnerID string `yaml:"partner_id"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"remote_api"`
	Memcache struct {
		Servers []string `yaml:"servers"`
	} `yaml:"memcache"`
	Settings map[string]string `yaml:"settings"`
}

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// LoadEnv reads the optional YAML file first, then lets environment variables win.
func LoadEnv() Env {
	env, err := LoadEnvFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
	}
	return env
}

// LoadEnvFile is LoadEnv with an explicit YAML path ("" skips the file).
func LoadEnvFile(path string) (Env, error) {
	var fc fileConfig
	var loadErr error
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("read %s: %w", path, err)
		} else if err := yaml.Unmarshal(b, &fc); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", path, err)
		}
	}

	raw := map[string]string{}
	for k, v := range fc.Settings {
		raw[strings.ToUpper(strings.TrimSpace(k))] = v
	}

	pick := func(key, fromFile, def string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			raw[key] = v
			return v
		}
		if fromFile != "" {
			raw[key] = fromFile
			return fromFile
		}
		if def != "" {
			raw[key] = def
		}
		return def
	}

	env := Env{
		AppAddr:            pick("APP_ADDR", fc.App.Addr, ":8080"),
		GinMode:            pick("GIN_MODE", fc.App.GinMode, ""),
		DBUser:             pick("DB_USER", fc.Database.User, "root"),
		DBPassword:         pick("DB_PASSWORD", fc.Database.Password, ""),
		DBHost:             pick("DB_HOST", fc.Database.Host, "127.0.0.1:3306"),
		DBName:             pick("DB_NAME", fc.Database.Name, "scaffold"),
		JWTSecret:          pick("JWT_SECRET", fc.Auth.JWTSecret, "change-me"),
		RemoteAPIBaseURL:   pick("REMOTE_API_BASE_URL", fc.RemoteAPI.BaseURL, ""),
		RemoteAPIAuthCode:  pick("REMOTE_API_AUTH_CODE", fc.RemoteAPI.AuthCode, ""),
		RemoteAPIPartnerID: pick("REMOTE_API_PARTNER_ID", fc.RemoteAPI.PartnerID, ""),
	}

	env.CORSAllowedOrigins = splitList(pick("CORS_ALLOWED_ORIGINS", strings.Join(fc.CORS.AllowedOrigins, ","), ""))
	if len(env.CORSAllowedOrigins) == 0 {
		env.CORSAllowedOrigins = defaultCORSOrigins
	}
	env.MemcacheServers = splitList(pick("MEMCACHE_SERVERS", strings.Join(fc.Memcache.Servers, ","), ""))
	env.RemoteAPITimeout = parseTimeout(pick("REMOTE_API_TIMEOUT", fc.RemoteAPI.Timeout, "15s"))
	env.raw = raw

	return env, loadErr
}

// Lookup returns a loaded configuration value by its upper-case key.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e.raw[strings.ToUpper(strings.TrimSpace(key))]
	return v, ok
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseTimeout(s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return 15 * time.Second
}
