package domain

import "time"

// Config holds the complete Preflight configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Upstream providers
	Chain      ChainConfig      `json:"chain"`
	Etherscan  EtherscanConfig  `json:"etherscan"`
	Intel      IntelConfig      `json:"intel"`
	Heuristics HeuristicsConfig `json:"heuristics"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
	RateLimitRPS int    `json:"rateLimitRps"` // per client, 0 disables

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `json:"trustProxyHeaders"`
}

// ChainConfig holds the Ethereum JSON-RPC settings.
type ChainConfig struct {
	RPCURL          string        `json:"rpcUrl"`
	TransferLimit   int           `json:"transferLimit"` // max recent transfers fetched per wallet
	UpstreamTimeout time.Duration `json:"upstreamTimeout"`
}

// EtherscanConfig holds the contract verification API settings.
type EtherscanConfig struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"-"`
}

// Intel source kinds.
const (
	IntelSourceFile     = "file"
	IntelSourceSQLite   = "sqlite"
	IntelSourcePostgres = "postgres"
)

// IntelConfig selects where the scam intelligence index is loaded from.
type IntelConfig struct {
	Source string `json:"source"` // file, sqlite or postgres
	Path   string `json:"path"`   // JSON or YAML feed when Source is file
}

// HeuristicsConfig points at operator-defined static heuristics.
type HeuristicsConfig struct {
	File string `json:"file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
	Endpoint    string `json:"endpoint"` // OTLP gRPC collector, host:port
}

// DefaultConfig returns a configuration for a single-node deployment:
// file-based intelligence, in-memory cache, no event bus.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  30,
			WriteTimeout: 30,
			RateLimitRPS: 20,
		},
		Chain: ChainConfig{
			TransferLimit:   5,
			UpstreamTimeout: 10 * time.Second,
		},
		Etherscan: EtherscanConfig{
			BaseURL: "https://api.etherscan.io/api",
		},
		Intel: IntelConfig{
			Source: IntelSourceFile,
			Path:   "scam_db.json",
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./preflight.db",
		},
		Cache: CacheConfig{
			Type:            "memory",
			LocalMaxSize:    10000,
			LocalTTL:        5 * time.Minute,
			VerificationTTL: time.Hour,
		},
		EventBus: EventBusConfig{
			Type:              "none",
			ChannelBufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "preflight",
		},
	}
}
