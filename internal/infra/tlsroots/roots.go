package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

	// ErrIncompleteKeyPair is returned when only one of cert and key is set.
	ErrIncompleteKeyPair = errors.New("tlsroots: cert_file and key_file must be set together")
)

// Pool manages a pool of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
}

// NewPool creates a new certificate pool with system roots.
// If system roots cannot be loaded, it creates an empty pool.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a new empty certificate pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds certificates from a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	return p.AddCertPEM(data)
}

// AddCertPEM adds every CERTIFICATE block of pemData.
func (p *Pool) AddCertPEM(pemData []byte) error {
	var certsAdded int

	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		certsAdded++
	}

	if certsAdded == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// Options selects the trust roots and client identity of a connection.
type Options struct {
	// CAFile adds PEM roots on top of the system pool.
	CAFile string
	// CertFile and KeyFile present a client certificate.
	CertFile string
	KeyFile  string

	ServerName         string
	InsecureSkipVerify bool
}

// ClientConfig builds a client tls.Config from opts. When a client
// certificate is configured the returned KeyPair serves it and may be
// watched for rotation; otherwise the KeyPair is nil.
func ClientConfig(opts Options, kpOpts ...KeyPairOption) (*tls.Config, *KeyPair, error) {
	cfg := &tls.Config{
		ServerName:         opts.ServerName,
		InsecureSkipVerify: opts.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}

	if opts.CAFile != "" {
		pool := NewPool()
		if err := pool.AddCertFile(opts.CAFile); err != nil {
			return nil, nil, err
		}
		cfg.RootCAs = pool.Pool()
	}

	if (opts.CertFile == "") != (opts.KeyFile == "") {
		return nil, nil, ErrIncompleteKeyPair
	}
	if opts.CertFile == "" {
		return cfg, nil, nil
	}

	kp, err := LoadKeyPair(opts.CertFile, opts.KeyFile, kpOpts...)
	if err != nil {
		return nil, nil, err
	}
	cfg.GetClientCertificate = kp.GetClientCertificate
	return cfg, kp, nil
}
