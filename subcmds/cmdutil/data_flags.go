// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bvk/refresher/config"
)

type DataFlags struct {
	dataDir    string
	configPath string
}

func (f *DataFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.dataDir, "data-dir", "", "path to the data directory (default $HOME/.refresher)")
	fset.StringVar(&f.configPath, "config", "", "path to the config file (default <data-dir>/config.yaml)")
}

// DataDir returns the absolute path to the data directory, creating it if
// necessary.
func (f *DataFlags) DataDir() (string, error) {
	if len(f.dataDir) == 0 {
		f.dataDir = filepath.Join(os.Getenv("HOME"), ".refresher")
	}
	if _, err := os.Stat(f.dataDir); err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("could not stat data directory %q: %w", f.dataDir, err)
		}
		if err := os.MkdirAll(f.dataDir, 0700); err != nil {
			return "", fmt.Errorf("could not create data directory %q: %w", f.dataDir, err)
		}
	}
	dataDir, err := filepath.Abs(f.dataDir)
	if err != nil {
		return "", fmt.Errorf("could not determine data-dir %q absolute path: %w", f.dataDir, err)
	}
	return dataDir, nil
}

// LoadConfig loads the config file. Environment file is searched in the data
// directory before the home directory.
func (f *DataFlags) LoadConfig(dataDir string) (*config.Config, error) {
	if len(f.configPath) == 0 {
		f.configPath = filepath.Join(dataDir, "config.yaml")
	}
	var envDirs []string
	if home, err := os.UserHomeDir(); err == nil {
		envDirs = []string{dataDir, home}
	} else {
		envDirs = []string{dataDir}
	}
	return config.Load(f.configPath, envDirs...)
}
