package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/ugel-satipo/portal/internal/cli/api"
)

const keyringService = "ugel-cli"

// KeyringStore keeps the session in the OS keychain/credential manager. Both
// values share a single secret so they are written in one call.
type KeyringStore struct {
	account string
}

// NewKeyringStore scopes the secret to account, typically the API URL
func NewKeyringStore(account string) *KeyringStore {
	return &KeyringStore{account: keyringAccount(account)}
}

func keyringAccount(account string) string {
	if account == "" {
		return "session"
	}
	return fmt.Sprintf("session-%s", account)
}

func (s *KeyringStore) Save(token string, user *api.User) error {
	data, err := encode(token, user)
	if err != nil {
		return err
	}
	if err := keyring.Set(keyringService, s.account, string(data)); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func (s *KeyringStore) Load() Credentials {
	secret, err := keyring.Get(keyringService, s.account)
	if err != nil {
		return Credentials{}
	}
	return decode([]byte(secret))
}

func (s *KeyringStore) Clear() error {
	if err := keyring.Delete(keyringService, s.account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
