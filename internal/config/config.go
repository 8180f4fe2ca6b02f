// Package config settings shared by kvschema and kvstored
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	TransportWS      = "ws"
	TransportHTTP    = "http"
	TransportGraphQL = "graphql"
	TransportGRPC    = "grpc"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	// server side
	Listen        string        `toml:"listen"`
	HTTPListen    string        `toml:"http_listen"` // "" - no json-rpc, graphql and /metrics
	SeedFile      string        `toml:"seed_file"`
	StoreFile     string        `toml:"store_file"`
	StoreInterval time.Duration `toml:"store_interval"` // 0 - disable save data

	// shared
	Token    string `toml:"token"`
	Insecure bool   `toml:"insecure"` // send the token over plaintext gRPC

	// client side
	Endpoint       string        `toml:"endpoint"`
	Transport      string        `toml:"transport"`
	Address        string        `toml:"address"`
	SchemaFile     string        `toml:"schema_file"`
	Timeout        time.Duration `toml:"timeout"`
	MaxArrayLength uint64        `toml:"max_array_length"` // 0 - codec default

	Debug bool `toml:"debug"`
}

func Default() *Config {
	return &Config{
		Listen:        "127.0.0.1:3200",
		StoreInterval: 0,
		Insecure:      true,
		Endpoint:      "127.0.0.1:3200",
		Transport:     TransportGRPC,
		Timeout:       10 * time.Second,
	}
}

// Load defaults overridden by the TOML file at path
func Load(path string) (*Config, error) {
	conf := Default()
	if path == "" {
		return conf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	switch c.Transport {
	case TransportWS, TransportHTTP, TransportGraphQL, TransportGRPC:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	}
	if c.Timeout < 0 || c.StoreInterval < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	}
	return nil
}

// NewConfig server config from the command line, see Parse
func NewConfig() (*Config, error) {
	return Parse(os.Args[1:])
}

// Parse reads -CONFIG first, then applies every flag given explicitly on top of it
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("kvstored", flag.ContinueOnError)
	path := fs.String("CONFIG", "", "toml config file")
	listen := fs.String("LISTEN", "", "grpc listen address")
	httpListen := fs.String("HTTP_LISTEN", "", "json-rpc, graphql and /metrics listen address")
	seed := fs.String("SEED_FILE", "", "json seed file")
	storeFile := fs.String("STORE_FILE", "", "store file")
	interval := fs.Duration("STORE_INTERVAL", 0, "store interval")
	tok := fs.String("TOKEN", "", "required bearer token")
	debug := fs.Bool("DEBUG", false, "development logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	conf, err := Load(*path)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "LISTEN":
			conf.Listen = *listen
		case "HTTP_LISTEN":
			conf.HTTPListen = *httpListen
		case "SEED_FILE":
			conf.SeedFile = *seed
		case "STORE_FILE":
			conf.StoreFile = *storeFile
		case "STORE_INTERVAL":
			conf.StoreInterval = *interval
		case "TOKEN":
			conf.Token = *tok
		case "DEBUG":
			conf.Debug = *debug
		}
	})
	return conf, conf.Validate()
}
