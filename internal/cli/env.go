package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mfridman/interpolate"
)

const (
	envPrefix = "MIGRATE"

	// ENV_FILE names the dotenv file loaded before flags are resolved, lower priority than
	// --env-file.
	ENV_FILE = envPrefix + "_ENV_FILE"

	// https://no-color.org/
	ENV_NO_COLOR = "NO_COLOR"
)

// defaultEnvFile is loaded when present and no other file is named.
const defaultEnvFile = ".env"

// loadEnvFile loads variables from a dotenv file into the process environment. Variables that are
// already set are not overridden. Pass "none" to skip loading.
//
// The file is taken from the --env-file flag, then MIGRATE_ENV_FILE, then ./.env if it exists.
func loadEnvFile(args []string) error {
	name, explicit := envFileFromArgs(args)
	if !explicit {
		if v, ok := os.LookupEnv(ENV_FILE); ok && v != "" {
			name, explicit = v, true
		}
	}
	if name == "none" {
		return nil
	}
	if !explicit {
		if _, err := os.Stat(defaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		name = defaultEnvFile
	}
	if err := godotenv.Load(name); err != nil {
		return fmt.Errorf("failed to load env file %q: %w", name, err)
	}
	return nil
}

// envFileFromArgs finds the --env-file flag before flags are parsed, so the file can feed
// flag defaults through the environment.
func envFileFromArgs(args []string) (string, bool) {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		trimmed := strings.TrimLeft(arg, "-")
		if trimmed == arg {
			continue
		}
		name, value, hasValue := strings.Cut(trimmed, "=")
		if name != "env-file" {
			continue
		}
		if hasValue {
			return value, true
		}
		if i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

type osEnv struct{}

var _ interpolate.Env = osEnv{}

func (osEnv) Get(key string) (string, bool) {
	return os.LookupEnv(key)
}

// expandEnv substitutes $VAR, ${VAR} and ${VAR:-default} references in s.
func expandEnv(s string) (string, error) {
	return interpolate.Interpolate(osEnv{}, s)
}

// An EnvVar is an environment variable Name=Value.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// listEnv returns NO_COLOR and every variable starting with MIGRATE_, sorted by name.
func listEnv() []EnvVar {
	envs := []EnvVar{
		{Name: ENV_NO_COLOR, Value: os.Getenv(ENV_NO_COLOR)},
	}
	var prefixed []EnvVar
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, envPrefix+"_") {
			continue
		}
		if name, value, ok := strings.Cut(e, "="); ok {
			prefixed = append(prefixed, EnvVar{Name: name, Value: value})
		}
	}
	sort.Slice(prefixed, func(i, j int) bool { return prefixed[i].Name < prefixed[j].Name })
	return append(envs, prefixed...)
}
