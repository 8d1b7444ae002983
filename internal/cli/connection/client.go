package connection

import (
	"crypto/tls"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yndnr/redpipe-go/internal/config"
	"github.com/yndnr/redpipe-go/internal/infra/tlsroots"
)

// NewClient creates a client for one configured connection. URL connections
// and plain Addrs produce a *redis.Client; Cluster produces a
// *redis.ClusterClient.
func NewClient(c config.ConnectionConfig) (redis.UniversalClient, error) {
	client, _, err := newClient(c)
	return client, err
}

// newClient also returns the client key pair when the connection presents
// a certificate, so the caller can watch it for rotation.
func newClient(c config.ConnectionConfig) (redis.UniversalClient, *tlsroots.KeyPair, error) {
	if c.Cluster {
		tlsCfg, kp, err := tlsConfig(c.TLS, nil)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       c.Addrs,
			Username:    c.Username,
			Password:    c.Password,
			PoolSize:    c.PoolSize,
			DialTimeout: c.DialTimeout,
			ReadTimeout: c.ReadTimeout,
			TLSConfig:   tlsCfg,
		}), kp, nil
	}

	var opts *redis.Options
	switch {
	case c.URL != "":
		parsed, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse url: %w", err)
		}
		opts = parsed
	case len(c.Addrs) > 0:
		opts = &redis.Options{Addr: c.Addrs[0], DB: c.DB}
	default:
		return nil, nil, fmt.Errorf("connection has neither url nor addrs")
	}

	// Explicit settings win over values embedded in the URL.
	if c.Username != "" {
		opts.Username = c.Username
	}
	if c.Password != "" {
		opts.Password = c.Password
	}
	if c.DB != 0 {
		opts.DB = c.DB
	}
	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}
	if c.ReadTimeout > 0 {
		opts.ReadTimeout = c.ReadTimeout
	}

	tlsCfg, kp, err := tlsConfig(c.TLS, opts.TLSConfig)
	if err != nil {
		return nil, nil, err
	}
	opts.TLSConfig = tlsCfg
	return redis.NewClient(opts), kp, nil
}

// tlsConfig builds the TLS settings of a connection. parsed is what a
// rediss:// URL already produced; its server name is kept unless one is
// configured.
func tlsConfig(t config.TLSSection, parsed *tls.Config) (*tls.Config, *tlsroots.KeyPair, error) {
	if !t.IsSet() {
		return parsed, nil, nil
	}

	cfg, kp, err := tlsroots.ClientConfig(tlsroots.Options{
		CAFile:             t.CAFile,
		CertFile:           t.CertFile,
		KeyFile:            t.KeyFile,
		ServerName:         t.ServerName,
		InsecureSkipVerify: t.InsecureSkipVerify,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("tls: %w", err)
	}
	if cfg.ServerName == "" && parsed != nil {
		cfg.ServerName = parsed.ServerName
	}
	return cfg, kp, nil
}
