package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		// Driver selects the history backend: mysql, postgres or
		// sqlite.
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		// Path is the database file for the sqlite driver.
		Path string `yaml:"path"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		VisionModel    string `yaml:"visionModel"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		MaxRetries     int    `yaml:"maxRetries"`
	} `yaml:"openai"`

	Analysis struct {
		MaxFileSizeMB int64 `yaml:"maxFileSizeMB"`
		// Debug swaps the OpenAI client for a local extractive
		// summarizer when no API key is configured.
		Debug bool `yaml:"debug"`
	} `yaml:"analysis"`
}

// Load reads and parses the yaml config file, then fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "analyzer.db"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o"
	}
	if c.OpenAI.VisionModel == "" {
		c.OpenAI.VisionModel = c.OpenAI.Model
	}
	if c.OpenAI.TimeoutSeconds == 0 {
		c.OpenAI.TimeoutSeconds = 60
	}
	if c.Analysis.MaxFileSizeMB == 0 {
		c.Analysis.MaxFileSizeMB = 10
	}
}

// MaxFileSizeBytes converts the configured megabyte ceiling to bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return c.Analysis.MaxFileSizeMB << 20
}

// Helper to build the MySQL DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper to build the Postgres DSN
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
