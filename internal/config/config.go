package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables
func Load() {
	// .env is optional; real environment variables always win over it
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	_loaded = cloneDefault()

	configFile := os.Getenv("USERDB_CONFIG_FILE")
	if configFile == "" {
		configFile = "userdb.yaml"
	}

	log.Printf("Attempting to load config file: %s", configFile)

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	} else {
		log.Printf("Successfully loaded config from file: %s", configFile)
	}

	ApplyEnvOverrides()

	log.Printf("Final config - store driver: %s, http: %s:%d",
		_loaded.Common.Store.Driver,
		_loaded.Common.Http.Host,
		_loaded.Common.Http.Port)
}

func LoadDefault() {
	_loaded = cloneDefault()
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := cloneDefault()

	// Merge YAML values over defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	_loaded = cfg
	return nil
}

// cloneDefault copies defaultConfig so that a loaded config never shares the
// schema field map with the package defaults.
func cloneDefault() *Config {
	cfg := defaultConfig
	cfg.Common.Users.Schema.Fields = make(map[string]SchemaField, len(defaultConfig.Common.Users.Schema.Fields))
	for name, field := range defaultConfig.Common.Users.Schema.Fields {
		cfg.Common.Users.Schema.Fields[name] = field
	}
	return &cfg
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Http: httpConfig{
			Host:           "0.0.0.0",
			Port:           3000,
			MaxRequestSize: 1048576,
		},
		Store: storeConfig{
			Driver: StoreDriverMongo,
		},
		Mongo: mongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "userdb",
			Collection:     "users",
			ConnectTimeout: 10,
		},
		Postgres: postgresConfig{
			User:               "postgres",
			Password:           "postgres",
			Host:               "localhost",
			Port:               5432,
			Database:           "userdb",
			MaxOpenConnections: 10,
		},
	},
}

// Store drivers
const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Common struct {
	Log      logConfig      `yaml:"log"`
	Http     httpConfig     `yaml:"http"`
	Store    storeConfig    `yaml:"store"`
	Mongo    mongoConfig    `yaml:"mongo"`
	Postgres postgresConfig `yaml:"postgres"`
	Users    usersConfig    `yaml:"users"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type httpConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxRequestSize int64  `yaml:"max_request_size"`
}

type storeConfig struct {
	Driver string `yaml:"driver"` // "mongo", "postgres" or "memory"
}

type mongoConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Collection     string `yaml:"collection"`
	ConnectTimeout int    `yaml:"connect_timeout"` // seconds
}

type postgresConfig struct {
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Database           string `yaml:"database"`
	MaxOpenConnections int    `yaml:"max_open_connections"`
}

func (c postgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)
}

type usersConfig struct {
	Schema SchemaConfig `yaml:"schema"`
}

// SchemaConfig declares the expected user fields. An empty field set accepts
// any document.
type SchemaConfig struct {
	Strict bool                   `yaml:"strict"` // reject fields that are not declared
	Fields map[string]SchemaField `yaml:"fields"`
}

type SchemaField struct {
	Type     string `yaml:"type"` // string, number, boolean, object, array or any
	Required bool   `yaml:"required"`
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Store() storeConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Store
}

func Mongo() mongoConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Mongo
}

func Postgres() postgresConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Postgres
}

func Users() usersConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Users
}

func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}

func ApplyEnvOverrides() {
	if _loaded == nil {
		return
	}

	if level := os.Getenv("USERDB_LOG_LEVEL"); level != "" {
		_loaded.Common.Log.Level = level
	}
	if format := os.Getenv("USERDB_LOG_FORMAT"); format != "" {
		_loaded.Common.Log.Format = format
	}

	if httpHost := os.Getenv("USERDB_HTTP_HOST"); httpHost != "" {
		_loaded.Common.Http.Host = httpHost
	}
	if httpPort := os.Getenv("USERDB_HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			_loaded.Common.Http.Port = port
		}
	}

	if driver := os.Getenv("USERDB_STORE_DRIVER"); driver != "" {
		_loaded.Common.Store.Driver = driver
	}

	if mongoURI := os.Getenv("USERDB_MONGO_URI"); mongoURI != "" {
		_loaded.Common.Mongo.URI = mongoURI
	}
	if mongoDatabase := os.Getenv("USERDB_MONGO_DATABASE"); mongoDatabase != "" {
		_loaded.Common.Mongo.Database = mongoDatabase
	}
	if mongoCollection := os.Getenv("USERDB_MONGO_COLLECTION"); mongoCollection != "" {
		_loaded.Common.Mongo.Collection = mongoCollection
	}

	if dbHost := os.Getenv("USERDB_DB_HOST"); dbHost != "" {
		_loaded.Common.Postgres.Host = dbHost
	}
	if dbPort := os.Getenv("USERDB_DB_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			_loaded.Common.Postgres.Port = port
		}
	}
	if dbUser := os.Getenv("USERDB_DB_USER"); dbUser != "" {
		_loaded.Common.Postgres.User = dbUser
	}
	if dbPassword := os.Getenv("USERDB_DB_PASSWORD"); dbPassword != "" {
		_loaded.Common.Postgres.Password = dbPassword
	}
	if dbName := os.Getenv("USERDB_DB_NAME"); dbName != "" {
		_loaded.Common.Postgres.Database = dbName
	}
}
