//go:build !windows

package config

import (
	"os"

	"github.com/pkg/errors"
)

func homedir() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return "", errors.New("environment variable HOME not set")
	}

	return home, nil
}
