package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultInfluxURL is used when neither the config file nor the environment
// names a time-series database.
const DefaultInfluxURL = "http://localhost:8086"

// Environment variables consulted for the health-check base URL, in order.
var InfluxEnvVars = []string{"INFLUX_URL", "INFLUX_HOST"}

// SignerType selects how session tokens are minted
type SignerType string

const (
	SignerDev SignerType = "dev"
	SignerJWT SignerType = "jwt"
)

// SearchPaths defines where to look for config files, in order of preference
var SearchPaths = []string{
	"./config.json",
	"./config.yaml",
	"./energy-dashboard.json",
	"/etc/energy-dashboard/config.json",
	"/etc/energy-dashboard/config.yaml",
}

type Config struct {
	// Core server settings
	ListenAddr     string `json:"listen_addr" yaml:"listen_addr"`
	GRPCListenAddr string `json:"grpc_listen_addr,omitempty" yaml:"grpc_listen_addr,omitempty"` // Empty = gRPC health disabled

	// Time-series database probed after a successful login
	InfluxURL              string `json:"influx_url" yaml:"influx_url"`
	HealthTimeoutMS        int    `json:"health_timeout_ms" yaml:"health_timeout_ms"`
	MonitorIntervalSeconds int    `json:"monitor_interval_seconds" yaml:"monitor_interval_seconds"` // 0 = probe only on login

	// Login page
	BrandName     string `json:"brand_name" yaml:"brand_name"`
	PostLoginPath string `json:"post_login_path" yaml:"post_login_path"`

	Credentials Credentials `json:"credentials" yaml:"credentials"`
	Token       Token       `json:"token" yaml:"token"`
}

// Credentials is the single accepted username/password pair
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Token configures session token issuance
type Token struct {
	Signer     SignerType `json:"signer" yaml:"signer"`
	Secret     string     `json:"secret,omitempty" yaml:"secret,omitempty"` // HMAC key, jwt signer only
	TTLSeconds int        `json:"ttl_seconds" yaml:"ttl_seconds"`
}

func Default() *Config {
	return &Config{
		ListenAddr:     ":3000",
		GRPCListenAddr: "",

		InfluxURL:              DefaultInfluxURL,
		HealthTimeoutMS:        2000,
		MonitorIntervalSeconds: 0,

		BrandName:     "K Energy Save",
		PostLoginPath: "/sites",

		Credentials: Credentials{
			Username: "user",
			Password: "4444",
		},
		Token: Token{
			Signer:     SignerDev,
			TTLSeconds: 86400,
		},
	}
}

// Validate checks that the config can start a server
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if c.Credentials.Username == "" || c.Credentials.Password == "" {
		return errors.New("credentials.username and credentials.password are required")
	}
	if !strings.HasPrefix(c.PostLoginPath, "/") {
		return fmt.Errorf("post_login_path must be an absolute path, got %q", c.PostLoginPath)
	}
	switch c.Token.Signer {
	case SignerDev:
	case SignerJWT:
		if c.Token.Secret == "" {
			return errors.New("token.secret is required for the jwt signer")
		}
	default:
		return fmt.Errorf("unknown token signer: %s", c.Token.Signer)
	}
	return nil
}

// ApplyEnv overrides the health-check base URL from the environment.
// INFLUX_URL wins over INFLUX_HOST.
func (c *Config) ApplyEnv() {
	for _, name := range InfluxEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			c.InfluxURL = v
			return
		}
	}
	if c.InfluxURL == "" {
		c.InfluxURL = DefaultInfluxURL
	}
}

// Find locates a config file from search paths, returns path and whether it exists
func Find() (string, bool) {
	for _, p := range SearchPaths {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return SearchPaths[0], false // default to first path for creation
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// stripJSONCComments removes // comments from JSONC content
func stripJSONCComments(data []byte) []byte {
	var buf bytes.Buffer
	lines := bytes.Split(data, []byte("\n"))
	for _, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("//")) {
			continue
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Load reads config from path, overlaying on defaults.
// Supports JSONC (JSON with // comments) and YAML by file extension.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnv()
			return cfg, nil // just use defaults
		}
		return nil, err
	}

	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		data = stripJSONCComments(data)
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// LoadAuto finds and loads config from standard paths
func LoadAuto() (*Config, string, error) {
	path, found := Find()
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	if !found {
		fmt.Printf("No config file found, using defaults\n")
		fmt.Printf("Create %s to customize settings\n", path)
	} else {
		fmt.Printf("Loaded config from %s\n", path)
	}
	return cfg, path, nil
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Template returns a commented config template for user reference
func Template() string {
	return strings.TrimSpace(`
{
  // HTTP server listen address
  "listen_addr": ":3000",

  // gRPC health endpoint (empty = disabled)
  "grpc_listen_addr": "",

  // Time-series database probed after each successful login.
  // INFLUX_URL or INFLUX_HOST in the environment override this value.
  "influx_url": "http://localhost:8086",

  // Probe timeout in milliseconds
  "health_timeout_ms": 2000,

  // Background probe interval in seconds (0 = only probe on login)
  "monitor_interval_seconds": 0,

  // Login page
  "brand_name": "K Energy Save",
  "post_login_path": "/sites",

  // The single accepted demo credential
  "credentials": {
    "username": "user",
    "password": "4444"
  },

  // Token issuance: "dev" (influx-dev-token-<millis>) or "jwt" (HS256)
  "token": {
    "signer": "dev",
    "secret": "",
    "ttl_seconds": 86400
  }
}
`) + "\n"
}
