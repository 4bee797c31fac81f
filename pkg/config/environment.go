package config

import (
	"io/fs"
	"os"

	"github.com/pkg/errors"
)

func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
