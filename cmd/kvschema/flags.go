package main

import (
	"time"

	"github.com/urfave/cli"
)

var (
	pathPlaceholder = "[path]"
	// configurationFile toml file with the defaults of every other flag
	configurationFile = cli.StringFlag{
		Name:  "config",
		Usage: "The `" + pathPlaceholder + "` for the toml configuration file.",
	}
	// schemaFile JSON schema document
	schemaFile = cli.StringFlag{
		Name:  "schema",
		Usage: "The `" + pathPlaceholder + "` for the JSON schema: an array of {name, key, keyType, valueType}.",
	}
	transport = cli.StringFlag{
		Name:  "transport",
		Usage: "Provider transport: ws, http, graphql or grpc.",
		Value: "grpc",
	}
	endpoint = cli.StringFlag{
		Name:  "endpoint",
		Usage: "Provider endpoint: ws:// or http(s):// url, or host:port for grpc.",
		Value: "127.0.0.1:3200",
	}
	address = cli.StringFlag{
		Name:  "address",
		Usage: "Contract address whose storage is read.",
	}
	bearerToken = cli.StringFlag{
		Name:   "token",
		Usage:  "Bearer token sent to the provider.",
		EnvVar: "KVSCHEMA_TOKEN",
	}
	timeout = cli.DurationFlag{
		Name:  "timeout",
		Usage: "Timeout of one command.",
		Value: 10 * time.Second,
	}
	maxArrayLength = cli.Uint64Flag{
		Name:  "max-array-length",
		Usage: "Upper bound of a decoded array count, 0 for the default.",
	}
	debug = cli.BoolFlag{
		Name:  "debug",
		Usage: "Development logging on stderr.",
	}
)
