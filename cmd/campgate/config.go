package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/campgate/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultAPIBaseURL   = "https://3.basecampapi.com"
	defaultAuthBaseURL  = "https://launchpad.37signals.com"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the campgate service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Used to sign the OAuth state parameter, so it must stay stable across restarts
	SecretKey string

	// Environment
	Environment string

	// Basecamp OAuth application credentials
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Basecamp endpoints, overridable for testing
	APIBaseURL  string
	AuthBaseURL string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,
		APIBaseURL:  defaultAPIBaseURL,
		AuthBaseURL: defaultAuthBaseURL,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":            setString(&c.ListenAddr),
		"DATABASE_URI":           setString(&c.DatabaseDSN),
		"SECRET_KEY":             setString(&c.SecretKey),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"ENVIRONMENT":            setString(&c.Environment),
		"BASECAMP_CLIENT_ID":     setString(&c.ClientID),
		"BASECAMP_CLIENT_SECRET": setString(&c.ClientSecret),
		"REDIRECT_URI":           setString(&c.RedirectURI),
		"API_BASE_URL":           setString(&c.APIBaseURL),
		"AUTH_BASE_URL":          setString(&c.AuthBaseURL),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("campgate", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.ClientID, "client-id", c.ClientID, "Basecamp OAuth client id")
	fs.StringVar(&c.ClientSecret, "client-secret", c.ClientSecret, "Basecamp OAuth client secret")
	fs.StringVar(&c.RedirectURI, "redirect-uri", c.RedirectURI, "OAuth callback URL")
	fs.StringVar(&c.APIBaseURL, "api-base-url", c.APIBaseURL, "Basecamp API base URL")
	fs.StringVar(&c.AuthBaseURL, "auth-base-url", c.AuthBaseURL, "Basecamp launchpad base URL")

	return fs.Parse(args)
}
