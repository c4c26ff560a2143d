// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ksentinel/ksentinel/pkg/option"

	"github.com/spf13/viper"
)

const (
	configName = "ksentinel"
	configFile = configName + ".yaml"
	dropInDir  = "ksentinel.conf.d"
)

func readConfigFile(path string, file string) error {
	filePath := filepath.Join(path, file)
	st, err := os.Stat(filePath)
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("failed to read config file '%s' not a regular file", file)
	}

	viper.AddConfigPath(path)
	return viper.MergeInConfig()
}

func readConfigDir(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("'%s' is not a directory", path)
	}

	cm, err := option.ReadDirConfig(path)
	if err != nil {
		return err
	}
	if err := viper.MergeConfigMap(cm); err != nil {
		return fmt.Errorf("merge config failed %w", err)
	}
	return nil
}

// readConfigSettings merges, by increasing priority, the config file of the
// working directory, the admin config file, its drop-in directory and
// --config-dir. Environment variables and flags override them all.
func readConfigSettings(confDir string) {
	viper.SetEnvPrefix(configName)
	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")

	// Look into cwd first, this is needed for quick development only
	if err := readConfigFile(".", configFile); err == nil {
		log.WithField("file", configFile).Info("Loaded config from working directory")
	}

	if err := readConfigFile(confDir, configFile); err == nil {
		log.WithField("file", filepath.Join(confDir, configFile)).Info("Loaded config file")
	}

	if err := readConfigDir(filepath.Join(confDir, dropInDir)); err == nil {
		log.WithField(option.KeyConfigDir, filepath.Join(confDir, dropInDir)).Info("Loaded config drop-ins")
	}

	// Read now the passed key --config-dir
	if viper.IsSet(option.KeyConfigDir) {
		configDir := viper.GetString(option.KeyConfigDir)
		// viper.IsSet could return true on an empty string reset
		if configDir != "" {
			err := readConfigDir(configDir)
			if err != nil {
				log.WithField(option.KeyConfigDir, configDir).WithError(err).Fatal("Failed to read config from directory")
			} else {
				log.WithField(option.KeyConfigDir, configDir).Info("Loaded config from directory")
			}
		}
	}
}
