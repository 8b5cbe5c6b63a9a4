package input

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/kobold-systems/lr35902/gbcore/input/action"
)

const (
	configDirName  = "lr35902"
	configFileName = "keymap.toml"
	configFileMode = os.FileMode(0644)
	configDirMode  = os.FileMode(0755)
)

// KeyMapConfig is the on-disk representation of a user's key bindings. It
// mirrors DefaultKeyMap but is expressed as a flat key->action-name table so
// it round-trips cleanly through TOML.
type KeyMapConfig struct {
	Bindings map[string]string `toml:"bindings"`
}

// configPath returns the path to the user's key map config file, creating
// its containing directory if necessary.
func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir = filepath.Join(dir, configDirName)
	if err := os.MkdirAll(dir, configDirMode); err != nil {
		return "", err
	}

	return filepath.Join(dir, configFileName), nil
}

// LoadKeyMapOrDefault reads a user key map from disk, falling back to
// DefaultKeyMap translated into action names. Unknown action names in the
// file are skipped rather than treated as fatal, so a config written by an
// older build still loads.
func LoadKeyMapOrDefault() map[string]action.Action {
	path, err := configPath()
	if err != nil {
		return cloneDefaultKeyMap()
	}

	var cfg KeyMapConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cloneDefaultKeyMap()
	}

	keymap := make(map[string]action.Action, len(cfg.Bindings))
	for key, actionName := range cfg.Bindings {
		act, ok := action.ByName(actionName)
		if !ok {
			continue
		}
		keymap[key] = act
	}

	if len(keymap) == 0 {
		return cloneDefaultKeyMap()
	}
	return keymap
}

// SaveKeyMap writes the given key map to the user's config directory as TOML.
func SaveKeyMap(keymap map[string]action.Action) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	cfg := KeyMapConfig{Bindings: make(map[string]string, len(keymap))}
	for key, act := range keymap {
		cfg.Bindings[key] = act.String()
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, configFileMode)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func cloneDefaultKeyMap() map[string]action.Action {
	keymap := make(map[string]action.Action, len(DefaultKeyMap))
	for k, v := range DefaultKeyMap {
		keymap[k] = v
	}
	return keymap
}
