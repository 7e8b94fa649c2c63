// Package util contains helpers that don't belong to any other package
package util

import "os"

var dockerEnvFile = "/.dockerenv"

// InContainer reports whether the process runs inside a Docker container
func InContainer() bool {
	_, err := os.Stat(dockerEnvFile)
	return err == nil
}
