package cmd

import (
	"fmt"
)

func errConfigNotFound(cfgPath string) error {
	return fmt.Errorf("config does not exist: %s", cfgPath)
}

func errUnknownConfigKey(key string) error {
	return fmt.Errorf("unknown config key %q", key)
}

var errNoConfig = fmt.Errorf("no config loaded, run `%s config init` first", appName)
