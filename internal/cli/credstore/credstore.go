// Package credstore persists the session token and the cached user profile.
// Stores only track presence; they never judge whether a token is still valid.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ugel-satipo/portal/internal/cli/api"
)

// Fixed keys the two values live under
const (
	TokenKey = "ugel_token"
	UserKey  = "ugel_user"
)

// Backend names accepted by Open
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// ErrNoCredentials is returned by Save when asked to persist half a pair
var ErrNoCredentials = errors.New("token and user are both required")

// Credentials is what Load returns. Either half may be absent.
type Credentials struct {
	Token string
	User  *api.User
}

// Empty reports whether neither value is stored
func (c Credentials) Empty() bool {
	return c.Token == "" && c.User == nil
}

// Complete reports whether both values are stored
func (c Credentials) Complete() bool {
	return c.Token != "" && c.User != nil
}

// Store is durable storage for one session
type Store interface {
	// Save writes token and user together
	Save(token string, user *api.User) error
	// Load never fails: unreadable values come back absent
	Load() Credentials
	// Clear removes both values; clearing an empty store is not an error
	Clear() error
}

// Options selects and configures a backend
type Options struct {
	Backend string
	Path    string // file backend
	Account string // keyring backend
}

// Open returns the store for opts.Backend
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		path := opts.Path
		if path == "" {
			var err error
			if path, err = DefaultPath(); err != nil {
				return nil, err
			}
		}
		return NewFileStore(path), nil
	case BackendKeyring:
		return NewKeyringStore(opts.Account), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q (use file, keyring or memory)", opts.Backend)
	}
}

// encode builds the persisted document: the token and the user serialized as JSON text
func encode(token string, user *api.User) ([]byte, error) {
	if token == "" || user == nil {
		return nil, ErrNoCredentials
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize user: %w", err)
	}

	data, err := json.Marshal(map[string]string{
		TokenKey: token,
		UserKey:  string(userJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize credentials: %w", err)
	}
	return data, nil
}

// decode reads a persisted document, treating anything unparsable as absent
func decode(data []byte) Credentials {
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return Credentials{}
	}

	creds := Credentials{Token: doc[TokenKey]}
	if raw := doc[UserKey]; raw != "" {
		var user api.User
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			creds.User = &user
		}
	}
	return creds
}
