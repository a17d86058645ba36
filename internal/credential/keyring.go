// Package credential stores the remote mission service API token in
// the system keyring so it never lands in the config file.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "orbit-planner"

// remoteTokenKey is the keyring entry holding the mission service
// Bearer token.
const remoteTokenKey = "remote_api_token"

// ErrNotSet is returned when no token has been stored yet.
var ErrNotSet = errors.New("credential not set")

// Store wraps the system keyring for this application's credentials.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the platform keyring, falling back to
// an encrypted file backend where no native keychain exists.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/orbit-planner/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("orbit-planner-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// RemoteToken retrieves the stored mission service token. Returns
// ErrNotSet when none has been saved.
func (s *Store) RemoteToken() (string, error) {
	item, err := s.ring.Get(remoteTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotSet
		}
		return "", fmt.Errorf("getting remote token: %w", err)
	}
	return string(item.Data), nil
}

// SetRemoteToken stores the mission service token.
func (s *Store) SetRemoteToken(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:  remoteTokenKey,
		Data: []byte(token),
	})
	if err != nil {
		return fmt.Errorf("setting remote token: %w", err)
	}
	return nil
}

// DeleteRemoteToken removes the stored token. Deleting an absent token
// is a no-op.
func (s *Store) DeleteRemoteToken() error {
	err := s.ring.Remove(remoteTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting remote token: %w", err)
	}
	return nil
}
