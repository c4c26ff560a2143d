// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadDirConfig reads a directory holding one file per option, the file
// name being the key and its trimmed content the value. Hidden files and
// sub directories are ignored, which skips the ..data links of mounted
// ConfigMaps.
func ReadDirConfig(dirName string) (map[string]interface{}, error) {
	m := map[string]interface{}{}
	files, err := os.ReadDir(dirName)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory %s: %w", dirName, err)
	}
	for _, f := range files {
		if strings.HasPrefix(f.Name(), ".") {
			continue
		}
		fName := filepath.Join(dirName, f.Name())
		info, err := os.Stat(fName)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		b, err := os.ReadFile(fName)
		if err != nil {
			return nil, fmt.Errorf("unable to read config file %s: %w", fName, err)
		}
		m[f.Name()] = strings.TrimSpace(string(b))
	}
	return m, nil
}
