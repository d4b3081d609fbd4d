package keyring

import (
	"errors"
	"fmt"
	"os"

	zkr "github.com/zalando/go-keyring"
)

const serviceName = "cell"

// Get retrieves the API key stored for a provider in the OS keychain.
func Get(provider string) (string, error) {
	key, err := zkr.Get(serviceName, provider)
	if err != nil {
		return "", fmt.Errorf("keychain get %s: %w", provider, err)
	}
	return key, nil
}

// Set stores a provider API key in the OS keychain.
func Set(provider, key string) error {
	return zkr.Set(serviceName, provider, key)
}

// Delete removes a provider API key from the OS keychain.
func Delete(provider string) error {
	return zkr.Delete(serviceName, provider)
}

// IsNotFound reports whether err means no key is stored.
func IsNotFound(err error) bool {
	return errors.Is(err, zkr.ErrNotFound)
}

// Available returns true if the OS keychain is functional.
// Returns false if CELL_KEYRING_DISABLED=1 is set (headless/CI/Docker).
// Otherwise probes the keychain with a test write/read/delete cycle.
func Available() bool {
	if os.Getenv("CELL_KEYRING_DISABLED") == "1" {
		return false
	}
	testService := "cell-keyring-probe"
	testAccount := "probe"
	if err := zkr.Set(testService, testAccount, "ok"); err != nil {
		return false
	}
	_ = zkr.Delete(testService, testAccount)
	return true
}
