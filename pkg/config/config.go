package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/complyd/config"
	ConfigFileName    = "complyd.yml"
)

// Config holds all complyd configuration settings.
type Config struct {
	// BindAddress is the address the HTTP server listens on.
	BindAddress string `yaml:"bind_address" json:"bind_address"`

	// Port is the HTTP server port.
	Port int `yaml:"port" json:"port"`

	// DatabaseURL is the system partition connection string. Usually set
	// through DATABASE_URL rather than the config file.
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// LogFormat is json or console.
	LogFormat string `yaml:"log_format" json:"log_format"`

	// PartitionHost is the host recorded in new partition descriptors.
	PartitionHost string `yaml:"partition_host" json:"partition_host"`

	// PartitionPort is the port recorded in new partition descriptors.
	PartitionPort int `yaml:"partition_port" json:"partition_port"`

	// RolesFile is the path to the role bundle definitions.
	RolesFile string `yaml:"roles_file" json:"roles_file"`

	// RedisAddr enables the tenant descriptor cache when non-empty.
	RedisAddr string `yaml:"redis_addr" json:"redis_addr"`

	// TokenSigningKey is the HMAC secret for verifying identity tokens.
	TokenSigningKey string `yaml:"token_signing_key" json:"token_signing_key"`

	// AdminSubjects lists the user ids allowed to run tenant lifecycle
	// operations over HTTP.
	AdminSubjects []string `yaml:"admin_subjects" json:"admin_subjects"`

	// PartitionCreateTimeoutSeconds bounds the CREATE SCHEMA step.
	PartitionCreateTimeoutSeconds int `yaml:"partition_create_timeout_seconds" json:"partition_create_timeout_seconds"`

	// SchemaInitTimeoutSeconds bounds tenant table initialization.
	SchemaInitTimeoutSeconds int `yaml:"schema_init_timeout_seconds" json:"schema_init_timeout_seconds"`

	// TrialDays is the default trial length when a plan does not set one.
	TrialDays int `yaml:"trial_days" json:"trial_days"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source.
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func newDefault() *Config {
	return &Config{
		BindAddress:                   "0.0.0.0",
		Port:                          8080,
		LogLevel:                      "info",
		LogFormat:                     "json",
		PartitionHost:                 "localhost",
		PartitionPort:                 5432,
		RolesFile:                     "/etc/complyd/roles.yml",
		PartitionCreateTimeoutSeconds: 30,
		SchemaInitTimeoutSeconds:      60,
		TrialDays:                     30,
		sources:                       make(map[string]string),
	}
}

func attributeNames() []string {
	return []string{
		"bind_address", "port", "database_url", "log_level", "log_format",
		"partition_host", "partition_port", "roles_file", "redis_addr",
		"token_signing_key", "admin_subjects", "partition_create_timeout_seconds",
		"schema_init_timeout_seconds", "trial_days",
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("COMPLYD_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func (c *Config) applyFileConfig(file *Config) {
	if file.BindAddress != "" {
		c.BindAddress = file.BindAddress
		c.sources["bind_address"] = "file"
	}
	if file.Port != 0 {
		c.Port = file.Port
		c.sources["port"] = "file"
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
		c.sources["database_url"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.LogFormat != "" {
		c.LogFormat = file.LogFormat
		c.sources["log_format"] = "file"
	}
	if file.PartitionHost != "" {
		c.PartitionHost = file.PartitionHost
		c.sources["partition_host"] = "file"
	}
	if file.PartitionPort != 0 {
		c.PartitionPort = file.PartitionPort
		c.sources["partition_port"] = "file"
	}
	if file.RolesFile != "" {
		c.RolesFile = file.RolesFile
		c.sources["roles_file"] = "file"
	}
	if file.RedisAddr != "" {
		c.RedisAddr = file.RedisAddr
		c.sources["redis_addr"] = "file"
	}
	if file.TokenSigningKey != "" {
		c.TokenSigningKey = file.TokenSigningKey
		c.sources["token_signing_key"] = "file"
	}
	if len(file.AdminSubjects) > 0 {
		c.AdminSubjects = file.AdminSubjects
		c.sources["admin_subjects"] = "file"
	}
	if file.PartitionCreateTimeoutSeconds != 0 {
		c.PartitionCreateTimeoutSeconds = file.PartitionCreateTimeoutSeconds
		c.sources["partition_create_timeout_seconds"] = "file"
	}
	if file.SchemaInitTimeoutSeconds != 0 {
		c.SchemaInitTimeoutSeconds = file.SchemaInitTimeoutSeconds
		c.sources["schema_init_timeout_seconds"] = "file"
	}
	if file.TrialDays != 0 {
		c.TrialDays = file.TrialDays
		c.sources["trial_days"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("COMPLYD_BIND_ADDRESS"); val != "" {
		c.BindAddress = val
		c.sources["bind_address"] = "environment"
	}
	if val := os.Getenv("PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.Port = i
			c.sources["port"] = "environment"
		}
	}
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.DatabaseURL = val
		c.sources["database_url"] = "environment"
	}
	if val := os.Getenv("COMPLYD_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
	if val := os.Getenv("COMPLYD_LOG_FORMAT"); val != "" {
		c.LogFormat = val
		c.sources["log_format"] = "environment"
	}
	if val := os.Getenv("COMPLYD_PARTITION_HOST"); val != "" {
		c.PartitionHost = val
		c.sources["partition_host"] = "environment"
	}
	if val := os.Getenv("COMPLYD_PARTITION_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.PartitionPort = i
			c.sources["partition_port"] = "environment"
		}
	}
	if val := os.Getenv("COMPLYD_ROLES_FILE"); val != "" {
		c.RolesFile = val
		c.sources["roles_file"] = "environment"
	}
	if val := os.Getenv("COMPLYD_REDIS_ADDR"); val != "" {
		c.RedisAddr = val
		c.sources["redis_addr"] = "environment"
	}
	if val := os.Getenv("COMPLYD_TOKEN_SIGNING_KEY"); val != "" {
		c.TokenSigningKey = val
		c.sources["token_signing_key"] = "environment"
	}
	if val := os.Getenv("COMPLYD_ADMIN_SUBJECTS"); val != "" {
		c.AdminSubjects = strings.Split(val, ",")
		c.sources["admin_subjects"] = "environment"
	}
	if val := os.Getenv("COMPLYD_PARTITION_CREATE_TIMEOUT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.PartitionCreateTimeoutSeconds = i
			c.sources["partition_create_timeout_seconds"] = "environment"
		}
	}
	if val := os.Getenv("COMPLYD_SCHEMA_INIT_TIMEOUT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SchemaInitTimeoutSeconds = i
			c.sources["schema_init_timeout_seconds"] = "environment"
		}
	}
	if val := os.Getenv("COMPLYD_TRIAL_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.TrialDays = i
			c.sources["trial_days"] = "environment"
		}
	}
}

// ConfigFilePath returns the path to the config file.
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute.
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// PartitionCreateTimeout returns the CREATE SCHEMA timeout as a duration.
func (c *Config) PartitionCreateTimeout() time.Duration {
	return time.Duration(c.PartitionCreateTimeoutSeconds) * time.Second
}

// SchemaInitTimeout returns the tenant table initialization timeout.
func (c *Config) SchemaInitTimeout() time.Duration {
	return time.Duration(c.SchemaInitTimeoutSeconds) * time.Second
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log_format: %s", c.LogFormat)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.PartitionCreateTimeoutSeconds <= 0 {
		return fmt.Errorf("partition_create_timeout_seconds must be positive")
	}
	if c.SchemaInitTimeoutSeconds <= 0 {
		return fmt.Errorf("schema_init_timeout_seconds must be positive")
	}
	return nil
}

// Attributes returns all configuration attributes with their values and
// sources. Secrets are masked.
func (c *Config) Attributes() []Attribute {
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return "(set)"
	}
	return []Attribute{
		{Name: "bind_address", Value: c.BindAddress, Source: c.Source("bind_address")},
		{Name: "port", Value: strconv.Itoa(c.Port), Source: c.Source("port")},
		{Name: "database_url", Value: mask(c.DatabaseURL), Source: c.Source("database_url")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "log_format", Value: c.LogFormat, Source: c.Source("log_format")},
		{Name: "partition_host", Value: c.PartitionHost, Source: c.Source("partition_host")},
		{Name: "partition_port", Value: strconv.Itoa(c.PartitionPort), Source: c.Source("partition_port")},
		{Name: "roles_file", Value: c.RolesFile, Source: c.Source("roles_file")},
		{Name: "redis_addr", Value: c.RedisAddr, Source: c.Source("redis_addr")},
		{Name: "token_signing_key", Value: mask(c.TokenSigningKey), Source: c.Source("token_signing_key")},
		{Name: "admin_subjects", Value: strings.Join(c.AdminSubjects, ","), Source: c.Source("admin_subjects")},
		{Name: "partition_create_timeout_seconds", Value: strconv.Itoa(c.PartitionCreateTimeoutSeconds), Source: c.Source("partition_create_timeout_seconds")},
		{Name: "schema_init_timeout_seconds", Value: strconv.Itoa(c.SchemaInitTimeoutSeconds), Source: c.Source("schema_init_timeout_seconds")},
		{Name: "trial_days", Value: strconv.Itoa(c.TrialDays), Source: c.Source("trial_days")},
	}
}

// FormatJSON returns a JSON representation of the configuration attributes.
func (c *Config) FormatJSON() (string, error) {
	data, err := json.MarshalIndent(c.Attributes(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatText returns a text representation of the configuration.
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-36s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-36s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-36s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}
