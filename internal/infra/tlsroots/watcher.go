package tlsroots

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the writes of one certificate rotation.
const DefaultDebounce = 500 * time.Millisecond

// KeyPair holds a client certificate and reloads it when its files change.
type KeyPair struct {
	certFile string
	keyFile  string
	debounce time.Duration
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	done     chan struct{}
	stopOnce sync.Once
}

// KeyPairOption configures a KeyPair.
type KeyPairOption func(*KeyPair)

// WithLogger sets the logger for reload events.
func WithLogger(logger *slog.Logger) KeyPairOption {
	return func(k *KeyPair) {
		k.logger = logger
	}
}

// WithDebounce sets the debounce duration.
func WithDebounce(d time.Duration) KeyPairOption {
	return func(k *KeyPair) {
		k.debounce = d
	}
}

// LoadKeyPair loads certFile and keyFile.
func LoadKeyPair(certFile, keyFile string, opts ...KeyPairOption) (*KeyPair, error) {
	k := &KeyPair{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(k)
	}

	if err := k.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return k, nil
}

// Reload reads the key pair from disk. The previous certificate stays in
// use when loading fails.
func (k *KeyPair) Reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	k.mu.Lock()
	k.cert = &cert
	k.mu.Unlock()
	return nil
}

// GetClientCertificate implements tls.Config.GetClientCertificate.
func (k *KeyPair) GetClientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cert, nil
}

// Watch reloads the key pair on changes until ctx is done or Stop is
// called.
func (k *KeyPair) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch directories so editor renames are seen.
	certDir := filepath.Dir(k.certFile)
	keyDir := filepath.Dir(k.keyFile)
	if err := watcher.Add(certDir); err != nil {
		return fmt.Errorf("tlsroots: watch cert dir %s: %w", certDir, err)
	}
	if keyDir != certDir {
		if err := watcher.Add(keyDir); err != nil {
			return fmt.Errorf("tlsroots: watch key dir %s: %w", keyDir, err)
		}
	}

	k.logger.Debug("certificate watcher started", "cert_file", k.certFile, "key_file", k.keyFile)

	certBase := filepath.Base(k.certFile)
	keyBase := filepath.Base(k.keyFile)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			changed := filepath.Base(event.Name)
			if changed != certBase && changed != keyBase {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(k.debounce)
			} else {
				timer.Reset(k.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := k.Reload(); err != nil {
				k.logger.Error("certificate reload failed", "error", err, "cert_file", k.certFile)
				continue
			}
			k.logger.Info("certificate reloaded", "cert_file", k.certFile)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			k.logger.Error("certificate watcher error", "error", err, "cert_file", k.certFile)

		case <-ctx.Done():
			return nil
		case <-k.done:
			return nil
		}
	}
}

// WatchAsync runs Watch in a goroutine.
func (k *KeyPair) WatchAsync(ctx context.Context) {
	go func() {
		if err := k.Watch(ctx); err != nil {
			k.logger.Error("certificate watcher stopped with error", "error", err)
		}
	}()
}

// Stop ends Watch. It is safe to call more than once.
func (k *KeyPair) Stop() {
	k.stopOnce.Do(func() { close(k.done) })
}
