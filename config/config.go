// Package config reads the process configuration from the environment and
// the optional lookup table file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"campkitchen/category"
	"campkitchen/units"
)

// Environment variable names.
const (
	EnvDBDriver    = "DB_DRIVER"
	EnvPostgresDSN = "POSTGRES_DSN"
	EnvSQLitePath  = "SQLITE_PATH"
	EnvBindAddr    = "BIND_ADDR"
	EnvTLSCert     = "TLS_CERT"
	EnvTLSKey      = "TLS_KEY"
	EnvTablesFile  = "TABLES_FILE"
	EnvLogLevel    = "LOG_LEVEL"
	EnvS3Region    = "S3_REGION"
	EnvS3Endpoint  = "S3_ENDPOINT"
	EnvS3AccessKey = "S3_ACCESS_KEY"
	EnvS3SecretKey = "S3_SECRET_KEY"
)

type Config struct {
	DBDriver    string `validate:"oneof=postgres sqlite"`
	PostgresDSN string `validate:"required_if=DBDriver postgres"`
	SQLitePath  string `validate:"required_if=DBDriver sqlite"`
	BindAddr    string `validate:"required"`
	TLSCert     string `validate:"required_with=TLSKey"`
	TLSKey      string `validate:"required_with=TLSCert"`
	TablesFile  string
	LogLevel    string `validate:"oneof=panic fatal error warn warning info debug trace"`

	S3Region    string
	S3Endpoint  string `validate:"omitempty,url"`
	S3AccessKey string `validate:"required_with=S3SecretKey"`
	S3SecretKey string `validate:"required_with=S3AccessKey"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// FromEnv loads a .env file from the working directory when there is one and
// reads the configuration from the environment.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Load(os.Getenv)
}

// Load reads the configuration through getenv and fills in defaults.
func Load(getenv func(string) string) (Config, error) {
	c := Config{
		DBDriver:    getenv(EnvDBDriver),
		PostgresDSN: getenv(EnvPostgresDSN),
		SQLitePath:  getenv(EnvSQLitePath),
		BindAddr:    getenv(EnvBindAddr),
		TLSCert:     getenv(EnvTLSCert),
		TLSKey:      getenv(EnvTLSKey),
		TablesFile:  getenv(EnvTablesFile),
		LogLevel:    getenv(EnvLogLevel),
		S3Region:    getenv(EnvS3Region),
		S3Endpoint:  getenv(EnvS3Endpoint),
		S3AccessKey: getenv(EnvS3AccessKey),
		S3SecretKey: getenv(EnvS3SecretKey),
	}

	if c.DBDriver == "" {
		c.DBDriver = "postgres"
		if c.PostgresDSN == "" && c.SQLitePath != "" {
			c.DBDriver = "sqlite"
		}
	}
	if c.BindAddr == "" {
		c.BindAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if err := validate.Struct(c); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// DSN is the data source name for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.PostgresDSN
}

// ConfigureLogging applies the log level to the standard logrus logger.
func (c Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Tables is the layout of the lookup table file. A missing section keeps the
// built-in table.
type Tables struct {
	Units      []units.Unit    `yaml:"units"`
	Categories []category.Rule `yaml:"categories"`
}

// LoadTables decodes a table file and builds the unit table and the
// categorizer from it.
func LoadTables(r io.Reader) (*units.Table, *category.Categorizer, error) {
	var t Tables
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("decode tables: %w", err)
	}

	u := units.Default()
	if len(t.Units) > 0 {
		var err error
		u, err = units.NewTable(t.Units)
		if err != nil {
			return nil, nil, fmt.Errorf("unit table: %w", err)
		}
	}

	c := category.Default()
	if len(t.Categories) > 0 {
		var err error
		c, err = category.New(t.Categories)
		if err != nil {
			return nil, nil, fmt.Errorf("category rules: %w", err)
		}
	}

	return u, c, nil
}

// Tables returns the configured lookup tables, or the built-in ones when no
// table file is set.
func (c Config) Tables() (*units.Table, *category.Categorizer, error) {
	if c.TablesFile == "" {
		return units.Default(), category.Default(), nil
	}

	f, err := os.Open(c.TablesFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open tables file: %w", err)
	}
	defer f.Close()

	return LoadTables(f)
}
