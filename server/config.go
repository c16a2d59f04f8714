// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "config-issuetracker.json"
	DefaultEnvFile    = ".env"
)

// ErrSecretKeyNotFound is returned when neither the environment nor the
// env file defines SECRET_KEY.
var ErrSecretKeyNotFound = errors.New("SECRET_KEY not found")

type RedisSettings struct {
	Address  string `yaml:"Address"`
	Password string `yaml:"Password"`
	DB       int    `yaml:"DB"`
}

type LogSettings struct {
	EnableConsole bool   `yaml:"EnableConsole"`
	ConsoleJSON   bool   `yaml:"ConsoleJSON"`
	ConsoleLevel  string `yaml:"ConsoleLevel"`
	EnableFile    bool   `yaml:"EnableFile"`
	FileJSON      bool   `yaml:"FileJSON"`
	FileLevel     string `yaml:"FileLevel"`
	FileLocation  string `yaml:"FileLocation"`
}

type Config struct {
	ListenAddress string `yaml:"ListenAddress"`
	PublicURL     string `yaml:"PublicURL"`
	StaticDir     string `yaml:"StaticDir"`

	DriverName string `yaml:"DriverName"`
	DataSource string `yaml:"DataSource"`

	// SecretKey is only ever read from the environment.
	SecretKey    string   `json:"-" yaml:"-"`
	Debug        bool     `yaml:"Debug"`
	AllowedHosts []string `yaml:"AllowedHosts"`
	EnvFile      string   `yaml:"EnvFile"`

	SessionLengthHours     int    `yaml:"SessionLengthHours"`
	SessionCleanupSchedule string `yaml:"SessionCleanupSchedule"`
	LoginAttemptsPerMinute int    `yaml:"LoginAttemptsPerMinute"`
	LoginAttemptsBurst     int    `yaml:"LoginAttemptsBurst"`
	TrustProxyHeaders      bool   `yaml:"TrustProxyHeaders"`

	DefaultLocale string `yaml:"DefaultLocale"`

	RedisSettings RedisSettings `yaml:"RedisSettings"`

	GithubAccessToken        string  `yaml:"GithubAccessToken"`
	GithubRequestsPerSecond  float64 `yaml:"GithubRequestsPerSecond"`
	GithubRequestsBurst      int     `yaml:"GithubRequestsBurst"`
	GithubCacheSizeMegabytes int     `yaml:"GithubCacheSizeMegabytes"`

	MattermostWebhookURL      string `yaml:"MattermostWebhookURL"`
	MattermostWebhookUsername string `yaml:"MattermostWebhookUsername"`
	MattermostWebhookFooter   string `yaml:"MattermostWebhookFooter"`

	MetricsServerPort  string `yaml:"MetricsServerPort"`
	EnableMetricsPprof bool   `yaml:"EnableMetricsPprof"`

	LogSettings LogSettings `yaml:"LogSettings"`
}

func defaultConfig() *Config {
	return &Config{
		ListenAddress:             ":8000",
		PublicURL:                 "http://localhost:8000",
		StaticDir:                 "./static",
		DriverName:                "mysql",
		DataSource:                "issuetracker:issuetracker@tcp(localhost:3306)/issuetracker?charset=utf8mb4,utf8&readTimeout=30s&writeTimeout=30s",
		EnvFile:                   DefaultEnvFile,
		SessionLengthHours:        24 * 14,
		SessionCleanupSchedule:    "@every 1h",
		LoginAttemptsPerMinute:    10,
		LoginAttemptsBurst:        5,
		DefaultLocale:             "en",
		GithubRequestsPerSecond:   10,
		GithubRequestsBurst:       10,
		GithubCacheSizeMegabytes:  32,
		MattermostWebhookUsername: "issuetracker",
		MetricsServerPort:         "9000",
		LogSettings: LogSettings{
			EnableConsole: true,
			ConsoleLevel:  "INFO",
			FileLevel:     "INFO",
		},
	}
}

func FindConfigFile(fileName string) string {
	if _, err := os.Stat("/tmp/" + fileName); err == nil {
		fileName, _ = filepath.Abs("/tmp/" + fileName)
	} else if _, err := os.Stat("./config/" + fileName); err == nil {
		fileName, _ = filepath.Abs("./config/" + fileName)
	} else if _, err := os.Stat("../config/" + fileName); err == nil {
		fileName, _ = filepath.Abs("../config/" + fileName)
	} else if _, err := os.Stat(fileName); err == nil {
		fileName, _ = filepath.Abs(fileName)
	}

	return fileName
}

// GetConfig reads the config file, then applies the env file and the
// environment on top of it. A missing file is only tolerated for the
// default file name.
func GetConfig(fileName string) (*Config, error) {
	config := defaultConfig()

	if fileName != "" {
		path := FindConfigFile(fileName)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err = decodeConfig(path, data, config); err != nil {
				return nil, fmt.Errorf("could not decode config file %s: %w", path, err)
			}
			mlog.Info("Loaded config file", mlog.String("filename", path))
		case errors.Is(err, os.ErrNotExist) && fileName == DefaultConfigFile:
			mlog.Debug("Config file not found, using defaults", mlog.String("filename", fileName))
		default:
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	if err := config.loadEnvFile(); err != nil {
		return nil, err
	}
	if err := config.applyEnvironment(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.IsValid(); err != nil {
		return nil, err
	}

	return config, nil
}

func decodeConfig(path string, data []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	default:
		return json.Unmarshal(data, config)
	}
}

// loadEnvFile loads the env file without overriding variables that are
// already set. Only an explicitly configured file has to exist.
func (config *Config) loadEnvFile() error {
	envFile := config.EnvFile
	if v := os.Getenv("ISSUETRACKER_ENV_FILE"); v != "" {
		envFile = v
	}
	if envFile == "" {
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, os.ErrNotExist) && envFile == DefaultEnvFile {
			return nil
		}
		return fmt.Errorf("could not load env file %s: %w", envFile, err)
	}
	mlog.Debug("Loaded env file", mlog.String("filename", envFile))
	return nil
}

func (config *Config) applyEnvironment(lookup func(string) (string, bool)) error {
	secret, ok := lookup("SECRET_KEY")
	if !ok || strings.TrimSpace(secret) == "" {
		return ErrSecretKeyNotFound
	}
	config.SecretKey = secret

	if v, ok := lookup("DEBUG"); ok {
		debug, err := ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG value: %w", err)
		}
		config.Debug = debug
	}

	if v, ok := lookup("ALLOWED_HOSTS"); ok {
		config.AllowedHosts = ParseAllowedHosts(v)
	}

	overrides := map[string]*string{
		"LISTEN_ADDRESS":      &config.ListenAddress,
		"DATA_SOURCE":         &config.DataSource,
		"REDIS_ADDRESS":       &config.RedisSettings.Address,
		"GITHUB_ACCESS_TOKEN": &config.GithubAccessToken,
	}
	for name, field := range overrides {
		if v, ok := lookup(name); ok && v != "" {
			*field = v
		}
	}

	return nil
}

// ParseBool accepts the usual spellings of a boolean environment variable.
// An empty value is false.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "y", "t":
		return true, nil
	case "", "0", "false", "no", "off", "n", "f":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", v)
}

// ParseAllowedHosts splits a comma separated host list, dropping blanks.
func ParseAllowedHosts(v string) []string {
	var hosts []string
	for _, host := range strings.Split(v, ",") {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

func (config *Config) IsValid() error {
	if config.ListenAddress == "" {
		return errors.New("ListenAddress must be set")
	}
	if config.DriverName != "mysql" {
		return fmt.Errorf("unsupported driver %q", config.DriverName)
	}
	if config.DataSource == "" {
		return errors.New("DataSource must be set")
	}
	if config.SessionLengthHours <= 0 {
		return errors.New("SessionLengthHours must be positive")
	}
	if config.LoginAttemptsPerMinute <= 0 || config.LoginAttemptsBurst <= 0 {
		return errors.New("login rate limit must be positive")
	}
	if config.DefaultLocale == "" {
		return errors.New("DefaultLocale must be set")
	}
	if config.MattermostWebhookURL != "" {
		if _, err := url.ParseRequestURI(config.MattermostWebhookURL); err != nil {
			return fmt.Errorf("invalid MattermostWebhookURL: %w", err)
		}
	}
	return nil
}
