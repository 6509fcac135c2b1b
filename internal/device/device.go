package device

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DeviceID returns this installation's stable identifier, generating
// and persisting one on first use.
func DeviceID(dir string) (string, error) {
	path := filepath.Join(dir, "device_id")
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, err = uuid.Parse(id); err == nil {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "error reading device ID: %s", path)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.Wrapf(err, "error creating device directory: %s", dir)
	}
	if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
		return "", errors.Wrapf(err, "error writing device ID: %s", path)
	}
	return id, nil
}
