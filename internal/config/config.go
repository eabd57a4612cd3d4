package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AlexKimmel/prayerlite/internal/ratelimit"
	"github.com/AlexKimmel/prayerlite/internal/tokenlimit"
)

type Server struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
	IdleTimeoutMS  int    `yaml:"idle_timeout_ms"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
}

type Observability struct {
	LogLevel       string `yaml:"log_level"`       // "debug","info","warn","error"
	PrometheusPath string `yaml:"prometheus_path"` // e.g. "/metrics"
}

type RateLimit struct {
	WindowMS    int `yaml:"window_ms"`
	MaxRequests int `yaml:"max_requests"`
}

type TokenLimit struct {
	WindowMS             int `yaml:"window_ms"`
	MaxInputPerWindow    int `yaml:"max_input_per_window"`
	MaxOutputPerWindow   int `yaml:"max_output_per_window"`
	MaxRequestsPerWindow int `yaml:"max_requests_per_window"`
	MaxInputPerRequest   int `yaml:"max_input_per_request"`
	MaxOutputPerRequest  int `yaml:"max_output_per_request"`
}

type Limits struct {
	Rate   RateLimit  `yaml:"rate"`
	Tokens TokenLimit `yaml:"tokens"`
	// SweepProbability is the per-call chance of dropping expired keys.
	SweepProbability *float64 `yaml:"sweep_probability"`
}

type LLM struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	// MaxOutputTokens caps generation and doubles as the pre-flight output estimate.
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	TimeoutMS       int     `yaml:"timeout_ms"`
	MaxRPS          float64 `yaml:"max_rps"`
	AllowClientKey  bool    `yaml:"allow_client_key"`
	ClientKeyHeader string  `yaml:"client_key_header"`

	// APIKey is resolved from APIKeyEnv at load time, never from the file.
	APIKey string `yaml:"-"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Session struct {
	CookieName string `yaml:"cookie_name"`
	MaxAgeSec  int    `yaml:"max_age_sec"`
	Secure     bool   `yaml:"secure"`
}

type ClientIP struct {
	Header string `yaml:"header"`
}

type Root struct {
	Server        Server        `yaml:"server"`
	Observability Observability `yaml:"observability"`
	Limits        Limits        `yaml:"limits"`
	LLM           LLM           `yaml:"llm"`
	Store         Store         `yaml:"store"`
	Session       Session       `yaml:"session"`
	ClientIP      ClientIP      `yaml:"client_ip"`
}

func (s Server) ReadTimeout() time.Duration {
	if s.ReadTimeoutMS == 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s Server) WriteTimeout() time.Duration {
	if s.WriteTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (s Server) IdleTimeout() time.Duration {
	if s.IdleTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

func (s Server) MaxBody() int64 {
	if s.MaxBodyBytes == 0 {
		return 64 << 10
	}
	return s.MaxBodyBytes
} // default 64KB

func (r RateLimit) Policy() ratelimit.Policy {
	return ratelimit.Policy{
		Window:      time.Duration(r.WindowMS) * time.Millisecond,
		MaxRequests: r.MaxRequests,
	}
}

func (t TokenLimit) Budget() tokenlimit.Budget {
	return tokenlimit.Budget{
		Window:               time.Duration(t.WindowMS) * time.Millisecond,
		MaxInputPerWindow:    t.MaxInputPerWindow,
		MaxOutputPerWindow:   t.MaxOutputPerWindow,
		MaxRequestsPerWindow: t.MaxRequestsPerWindow,
		MaxInputPerRequest:   t.MaxInputPerRequest,
		MaxOutputPerRequest:  t.MaxOutputPerRequest,
	}
}

func (l LLM) Timeout() time.Duration {
	return time.Duration(l.TimeoutMS) * time.Millisecond
}

func (s Session) MaxAge() time.Duration {
	return time.Duration(s.MaxAgeSec) * time.Second
}

// Load reads the YAML file at path, applies defaults and validates the result.
func Load(path string) (*Root, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse is Load without the file read. An empty document yields the defaults.
func Parse(b []byte) (*Root, error) {
	var cfg Root
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.LLM.APIKey = os.Getenv(cfg.LLM.APIKeyEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Root) applyDefaults() {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	}

	rl := &cfg.Limits.Rate
	if rl.WindowMS <= 0 {
		rl.WindowMS = int(ratelimit.DefaultWindow / time.Millisecond)
	}
	if rl.MaxRequests <= 0 {
		rl.MaxRequests = ratelimit.DefaultMaxRequests
	}

	tl := &cfg.Limits.Tokens
	if tl.WindowMS <= 0 {
		tl.WindowMS = int(tokenlimit.DefaultWindow / time.Millisecond)
	}
	b := tl.Budget().WithDefaults()
	tl.MaxInputPerWindow = b.MaxInputPerWindow
	tl.MaxOutputPerWindow = b.MaxOutputPerWindow
	tl.MaxRequestsPerWindow = b.MaxRequestsPerWindow
	tl.MaxInputPerRequest = b.MaxInputPerRequest
	tl.MaxOutputPerRequest = b.MaxOutputPerRequest

	if cfg.Limits.SweepProbability == nil {
		p := 0.01
		cfg.Limits.SweepProbability = &p
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENROUTER_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "openai/gpt-4o-mini"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.8
	}
	if cfg.LLM.MaxOutputTokens <= 0 {
		cfg.LLM.MaxOutputTokens = 1500
	}
	if cfg.LLM.TimeoutMS <= 0 {
		cfg.LLM.TimeoutMS = 45000
	}
	if cfg.LLM.ClientKeyHeader == "" {
		cfg.LLM.ClientKeyHeader = "X-OpenRouter-Key"
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = "prayerlite.db"
	}

	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "pray_session_id"
	}
	if cfg.Session.MaxAgeSec <= 0 {
		cfg.Session.MaxAgeSec = 365 * 24 * 60 * 60
	}

	if cfg.ClientIP.Header == "" {
		cfg.ClientIP.Header = "X-Forwarded-For"
	}
}

// Validate checks cross-field rules that defaults cannot repair.
func (cfg *Root) Validate() error {
	var errs []error

	if p := cfg.Limits.SweepProbability; p != nil && (*p < 0 || *p > 1) {
		errs = append(errs, fmt.Errorf("limits.sweep_probability must be within [0,1], got %v", *p))
	}
	tl := cfg.Limits.Tokens
	if cfg.LLM.MaxOutputTokens > tl.MaxOutputPerRequest {
		errs = append(errs, fmt.Errorf("llm.max_output_tokens (%d) exceeds limits.tokens.max_output_per_request (%d)",
			cfg.LLM.MaxOutputTokens, tl.MaxOutputPerRequest))
	}
	if cfg.LLM.MaxOutputTokens > tl.MaxOutputPerWindow {
		errs = append(errs, fmt.Errorf("llm.max_output_tokens (%d) exceeds limits.tokens.max_output_per_window (%d)",
			cfg.LLM.MaxOutputTokens, tl.MaxOutputPerWindow))
	}
	if tl.MaxInputPerRequest > tl.MaxInputPerWindow {
		errs = append(errs, fmt.Errorf("limits.tokens.max_input_per_request (%d) exceeds max_input_per_window (%d)",
			tl.MaxInputPerRequest, tl.MaxInputPerWindow))
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be within [0,2], got %v", cfg.LLM.Temperature))
	}
	if cfg.LLM.MaxRPS < 0 {
		errs = append(errs, fmt.Errorf("llm.max_rps must not be negative"))
	}

	return errors.Join(errs...)
}
