package common

import "os"

// FirstExistingDir returns the first candidate that exists and is a directory.
func FirstExistingDir(candidates []string) (string, bool) {
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, true
		}
	}
	return "", false
}
