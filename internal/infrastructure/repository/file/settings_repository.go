package file

import (
	"context"
	"os"
	"path/filepath"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/scorewatch/scorewatch/internal/domain/settings"
)

// SettingsRepository persists user settings (selected leagues, modes, theme
// fields, reminders) as a JSON file, read at startup and rewritten on every
// mutation.
type SettingsRepository struct {
	path string
}

func NewSettingsRepository(path string) (*SettingsRepository, error) {
	if path == "" {
		return nil, crerr.New("settings path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, crerr.Wrap(err, "create settings directory")
	}
	return &SettingsRepository{path: path}, nil
}

// Load returns the persisted settings, or defaults when no file exists.
func (r *SettingsRepository) Load(_ context.Context) (settings.Settings, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings.Default(), nil
		}
		return settings.Settings{}, crerr.Wrap(err, "read settings file")
	}

	var s settings.Settings
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return settings.Settings{}, crerr.Wrap(err, "decode settings file")
	}
	return settings.Normalize(s), nil
}

func (r *SettingsRepository) Save(_ context.Context, s settings.Settings) error {
	raw, err := sonic.Marshal(settings.Normalize(s))
	if err != nil {
		return crerr.Wrap(err, "encode settings")
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return crerr.Wrap(err, "write settings temp file")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return crerr.Wrap(err, "publish settings file")
	}
	return nil
}
