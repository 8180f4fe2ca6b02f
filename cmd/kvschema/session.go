package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/S0me0neR0man/kvschema/internal/config"
	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/provider"
	"github.com/S0me0neR0man/kvschema/internal/provider/graphql"
	"github.com/S0me0neR0man/kvschema/internal/provider/grpcquery"
	"github.com/S0me0neR0man/kvschema/internal/provider/httprpc"
	"github.com/S0me0neR0man/kvschema/internal/provider/wsrpc"
	"github.com/S0me0neR0man/kvschema/internal/query"
	"github.com/S0me0neR0man/kvschema/internal/schema"
	"github.com/S0me0neR0man/kvschema/internal/token"
)

// loadConfig the toml file, then every global flag set explicitly
func loadConfig(c *cli.Context) (*config.Config, error) {
	conf, err := config.Load(c.GlobalString(configurationFile.Name))
	if err != nil {
		return nil, err
	}
	if c.GlobalIsSet(schemaFile.Name) {
		conf.SchemaFile = c.GlobalString(schemaFile.Name)
	}
	if c.GlobalIsSet(transport.Name) {
		conf.Transport = c.GlobalString(transport.Name)
	}
	if c.GlobalIsSet(endpoint.Name) {
		conf.Endpoint = c.GlobalString(endpoint.Name)
	}
	if c.GlobalIsSet(address.Name) {
		conf.Address = c.GlobalString(address.Name)
	}
	if t := c.GlobalString(bearerToken.Name); t != "" {
		conf.Token = t
	}
	if c.GlobalIsSet(timeout.Name) {
		conf.Timeout = c.GlobalDuration(timeout.Name)
	}
	if c.GlobalIsSet(maxArrayLength.Name) {
		conf.MaxArrayLength = c.GlobalUint64(maxArrayLength.Name)
	}
	if c.GlobalIsSet(debug.Name) {
		conf.Debug = c.GlobalBool(debug.Name)
	}
	return conf, conf.Validate()
}

func newLogger(conf *config.Config) (*zap.Logger, error) {
	if conf.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadSchema(conf *config.Config) (*schema.Schema, error) {
	if conf.SchemaFile == "" {
		return nil, fmt.Errorf("no schema file, use --%s", schemaFile.Name)
	}
	return schema.LoadFile(conf.SchemaFile, nil)
}

// dialProvider connects the configured transport, closer releases it
func dialProvider(ctx context.Context, conf *config.Config, logger *zap.Logger) (provider.Provider, func() error, error) {
	noop := func() error { return nil }
	var source oauth2.TokenSource
	if conf.Token != "" {
		source = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: conf.Token})
	}

	switch conf.Transport {
	case config.TransportWS:
		header := http.Header{}
		if conf.Token != "" {
			header.Set("Authorization", "Bearer "+conf.Token)
		}
		c, err := wsrpc.Dial(ctx, conf.Endpoint, header, logger)
		if err != nil {
			return nil, nil, err
		}
		return c.Provider(logger), c.Close, nil
	case config.TransportHTTP:
		opts := []httprpc.Option{httprpc.WithLogger(logger)}
		if source != nil {
			opts = append(opts, httprpc.WithTokenSource(source))
		}
		return httprpc.New(conf.Endpoint, opts...).Provider(), noop, nil
	case config.TransportGraphQL:
		opts := []graphql.Option{graphql.WithLogger(logger)}
		if source != nil {
			opts = append(opts, graphql.WithTokenSource(source))
		}
		return graphql.New(conf.Endpoint, opts...), noop, nil
	case config.TransportGRPC:
		opts := []grpcquery.Option{grpcquery.WithTimeout(conf.Timeout)}
		if source != nil {
			opts = append(opts, grpcquery.WithCredentials(token.New(source, conf.Insecure)))
		}
		c, err := grpcquery.Dial(conf.Endpoint, opts...)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: transport %q", config.ErrInvalidConfig, conf.Transport)
}

// session everything a fetching command needs
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	orch   *query.Orchestrator
	logger *zap.Logger
	close  func() error
}

func newSession(c *cli.Context) (*session, error) {
	conf, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(conf)
	if err != nil {
		return nil, err
	}
	s, err := loadSchema(conf)
	if err != nil {
		return nil, err
	}
	addr, err := kv.ParseAddress(conf.Address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.Timeout)
	p, closer, err := dialProvider(ctx, conf, logger)
	if err != nil {
		cancel()
		return nil, err
	}
	orch, err := query.New(s, addr, p,
		query.WithLogger(logger),
		query.WithMaxArrayLength(conf.MaxArrayLength),
	)
	if err != nil {
		cancel()
		_ = closer()
		return nil, err
	}
	return &session{ctx: ctx, cancel: cancel, orch: orch, logger: logger, close: closer}, nil
}

func (s *session) Close() {
	s.cancel()
	if err := s.close(); err != nil {
		s.logger.Sugar().Debugw("provider close", "error", err)
	}
	_ = s.logger.Sync()
}
