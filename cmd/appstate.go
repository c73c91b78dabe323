package cmd

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/juju/fslock"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// appState is the modifiable state of the application.
type appState struct {
	// Log is the root logger of the application.
	// Consumers are expected to store and use local copies of the logger
	// after modifying with the .With method.
	Log *zap.Logger

	Viper *viper.Viper

	HomePath string
	Debug    bool
	Config   *Config
}

func (a *appState) configDir() string {
	return path.Join(a.HomePath, "config")
}

func (a *appState) configPath() string {
	return path.Join(a.configDir(), "config.yaml")
}

// OverwriteConfig writes cfg to the config file on disk and replaces a.Config with it.
// The write is guarded by a lock file so concurrent relayer processes
// sharing a home directory do not interleave their writes.
func (a *appState) OverwriteConfig(cfg *Config) error {
	cfgPath := a.configPath()
	if _, err := os.Stat(cfgPath); err != nil {
		return fmt.Errorf("failed to check existence of config file at %s: %w", cfgPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("failed to validate config at %s: %w", cfgPath, err)
	}

	// use lock file to guard concurrent access to config.yaml
	lockFilePath := path.Join(a.configDir(), "config.lock")
	lock := fslock.New(lockFilePath)
	if err := lock.LockWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("failed to acquire config lock: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.Log.Error("error unlocking config file lock, please manually delete",
				zap.String("filepath", lockFilePath),
			)
		}
	}()

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(cfgPath, out, 0600); err != nil {
		return fmt.Errorf("failed to write config file at %s: %w", cfgPath, err)
	}

	a.Config = cfg
	return nil
}
