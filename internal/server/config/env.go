package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/taskhub/internal/flagx"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// parseEnv overlays variables named by the `env` struct tags.
//
// A dotenv file is loaded first: the path given with -env, otherwise
// ".env" in the working directory when it exists. godotenv never
// overrides variables already present in the process environment.
// Variables that are unset leave the current value untouched.
func parseEnv(config *Config) error {
	envFile := flagx.EnvFile(os.Args[1:])
	switch {
	case envFile != "":
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	default:
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("read env: %w", err)
	}
	return nil
}
