// Package credential resolves tracker secrets stored in the system keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "itsm-sync"

// ErrNotFound is returned when the keyring has no entry for a key.
var ErrNotFound = errors.New("credential not found")

// Open returns the itsm-sync keyring.
func Open() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/itsm-sync/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("itsm-sync-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Lookup returns a function reading keys from ring, suitable for
// model.AppConfig.ResolveSecrets.
func Lookup(ring keyring.Keyring) func(key string) (string, error) {
	return func(key string) (string, error) {
		item, err := ring.Get(key)
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
		}
		if err != nil {
			return "", fmt.Errorf("getting credential %q: %w", key, err)
		}
		return string(item.Data), nil
	}
}
