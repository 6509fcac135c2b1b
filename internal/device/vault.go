package device

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

var ErrNoStoredSession = errors.New("no stored session tokens")

type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenVault keeps session tokens on disk encrypted with a per-device
// secretbox key, standing in for the platform keychain.
type TokenVault struct {
	tokenPath string
	key       [32]byte
}

func NewTokenVault(dir string) (*TokenVault, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "error creating vault directory: %s", dir)
	}
	v := &TokenVault{tokenPath: filepath.Join(dir, "session.bin")}

	keyPath := filepath.Join(dir, "device.key")
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "error reading device key: %s", keyPath)
		}
		if _, err = rand.Read(v.key[:]); err != nil {
			return nil, errors.Wrap(err, "error generating device key")
		}
		if err = os.WriteFile(keyPath, v.key[:], 0o600); err != nil {
			return nil, errors.Wrapf(err, "error writing device key: %s", keyPath)
		}
		return v, nil
	}
	if len(keyData) != len(v.key) {
		return nil, errors.Errorf("device key has wrong length: %d", len(keyData))
	}
	copy(v.key[:], keyData)
	return v, nil
}

func (v *TokenVault) Store(t SessionTokens) error {
	plain, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "error marshalling session tokens")
	}
	var nonce [24]byte
	if _, err = rand.Read(nonce[:]); err != nil {
		return errors.Wrap(err, "error generating nonce")
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &v.key)
	if err = os.WriteFile(v.tokenPath, sealed, 0o600); err != nil {
		return errors.Wrapf(err, "error writing sealed session tokens: %s", v.tokenPath)
	}
	return nil
}

func (v *TokenVault) Load() (SessionTokens, error) {
	sealed, err := os.ReadFile(v.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return SessionTokens{}, ErrNoStoredSession
		}
		return SessionTokens{}, errors.Wrapf(err, "error reading sealed session tokens: %s", v.tokenPath)
	}
	if len(sealed) < 24 {
		return SessionTokens{}, errors.Errorf("sealed session tokens too short: %d bytes", len(sealed))
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &v.key)
	if !ok {
		return SessionTokens{}, errors.New("error opening sealed session tokens")
	}
	var t SessionTokens
	if err = json.Unmarshal(plain, &t); err != nil {
		return SessionTokens{}, errors.Wrap(err, "error unmarshalling session tokens")
	}
	return t, nil
}

// Clear removes the stored tokens. Clearing an empty vault is a no-op.
func (v *TokenVault) Clear() error {
	if err := os.Remove(v.tokenPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "error removing sealed session tokens: %s", v.tokenPath)
	}
	return nil
}
