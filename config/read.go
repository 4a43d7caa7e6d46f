package config

import (
	"os"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"
)

const (
	DefaultLivenessSchedule = "@every 1m"
	DefaultDriver           = "mysql"
	DefaultAdminUsername    = "admin"

	EnvServerSecret  = "COORDINATOR_SECRET"
	EnvAdminPassword = "COORDINATOR_ADMIN_PASSWORD"
	EnvDBPassword    = "COORDINATOR_DB_PASSWORD"
)

// LoadEnv preloads a .env file when present. A missing file is not an error.
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

func ReadConfig(configPath string) (Config, error) {
	var config Config
	all, err := os.ReadFile(configPath)
	if err != nil {
		return config, err
	}

	if err := yaml.Unmarshal(all, &config); err != nil {
		return config, err
	}
	config.applyDefaults()
	return config, nil
}

// Default returns a configuration carrying only the defaults, for tools that run without a file.
func Default() Config {
	var config Config
	config.applyDefaults()
	return config
}

func MustReadConfig(configPath string) Config {
	config, err := ReadConfig(configPath)
	if err != nil {
		panic(err)
	}
	return config
}

func (c *Config) applyDefaults() {
	if c.Server.Secret == "" {
		c.Server.Secret = os.Getenv(EnvServerSecret)
	}
	if c.Server.AdminPassword == "" {
		c.Server.AdminPassword = os.Getenv(EnvAdminPassword)
	}
	if c.DB.Password == "" {
		c.DB.Password = os.Getenv(EnvDBPassword)
	}
	if c.Server.AdminUsername == "" {
		c.Server.AdminUsername = DefaultAdminUsername
	}
	if c.DB.Driver == "" {
		c.DB.Driver = DefaultDriver
	}
	if c.Liveness.Schedule == "" {
		c.Liveness.Schedule = DefaultLivenessSchedule
	}
	if c.Server.AuthExpMinute == 0 {
		c.Server.AuthExpMinute = 60
	}
	if c.Server.AuthRefreshMinute == 0 {
		c.Server.AuthRefreshMinute = 24 * 60
	}
	if c.Client.HeartbeatIntervalSeconds == 0 {
		c.Client.HeartbeatIntervalSeconds = 60
	}
}
