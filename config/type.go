package config

type Config struct {
	DB       DBConfig       `json:"db"  yaml:"db"`
	Logger   LoggerConfig   `json:"logger"  yaml:"logger"`
	Server   ServerConfig   `json:"server"  yaml:"server"`
	Liveness LivenessConfig `json:"liveness"  yaml:"liveness"`
	Metrics  MetricsConfig  `json:"metrics"  yaml:"metrics"`
	Client   ClientConfig   `json:"client"  yaml:"client"`
}

type DBConfig struct {
	// Driver selects the storage backend: mysql (default), postgres, sqlite or memory.
	Driver                 string `json:"driver"  yaml:"driver"`
	Host                   string `json:"host"  yaml:"host"`
	Port                   uint   `json:"port"  yaml:"port"`
	Username               string `json:"username"  yaml:"username"`
	Password               string `json:"password"  yaml:"password"`
	Database               string `json:"database"  yaml:"database"`
	SSLMode                string `json:"sslMode"  yaml:"sslMode"`
	Path                   string `json:"path"  yaml:"path"`
	MaxIdleConns           int    `json:"maxIdleConns"  yaml:"maxIdleConns"`
	// MaxOpenConns is ignored for sqlite, which always runs on one connection.
	MaxOpenConns           int    `json:"maxOpenConns"  yaml:"maxOpenConns"`
	ConnMaxLifetimeMinutes int    `json:"connMaxLifetimeMinutes"  yaml:"connMaxLifetimeMinutes"`
}

type ServerConfig struct {
	HttpPort          uint   `json:"httpPort"  yaml:"httpPort"`
	Secret            string `json:"secret"  yaml:"secret"`
	SslEnabled        bool   `json:"sslEnabled"  yaml:"sslEnabled"`
	Key               string `json:"key"  yaml:"key"`
	Cert              string `json:"cert"  yaml:"cert"`
	AuthExpMinute     uint   `json:"authExpMin"  yaml:"authExpMin"`
	AuthRefreshMinute uint   `json:"authExpRefreshMin"  yaml:"authExpRefreshMin"`
	// AdminUsername and AdminPassword seed the first operator when the table is empty.
	AdminUsername string `json:"adminUsername"  yaml:"adminUsername"`
	AdminPassword string `json:"adminPassword"  yaml:"adminPassword"`
}

type LoggerConfig struct {
	Level      string `json:"level"  yaml:"level"`
	Output     string `json:"output"  yaml:"output"`
	Path       string `json:"path"  yaml:"path"`
	MaxSizeMB  int    `json:"maxSizeMB"  yaml:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"  yaml:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"  yaml:"maxAgeDays"`
	Compress   bool   `json:"compress"  yaml:"compress"`
}

type LivenessConfig struct {
	Enabled  bool   `json:"enabled"  yaml:"enabled"`
	Schedule string `json:"schedule"  yaml:"schedule"`
}

type MetricsConfig struct {
	// CacheTTLSeconds of 0 disables fleet metrics caching.
	CacheTTLSeconds uint `json:"cacheTTLSeconds"  yaml:"cacheTTLSeconds"`
}

// ClientConfig is read by the scanner agent (scannerctl agent), not by the coordinator.
type ClientConfig struct {
	BaseURL                  string `json:"baseURL"  yaml:"baseURL"`
	ScannerID                string `json:"scannerID"  yaml:"scannerID"`
	APIKey                   string `json:"apiKey"  yaml:"apiKey"`
	HeartbeatIntervalSeconds uint   `json:"heartbeatIntervalSeconds"  yaml:"heartbeatIntervalSeconds"`
}
