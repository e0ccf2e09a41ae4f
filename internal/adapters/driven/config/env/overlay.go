// Package env overlays process environment variables onto a ConfigStore.
// Environment values take precedence over the wrapped store; writes go
// to the wrapped store.
package env

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
)

// Ensure Overlay implements the interface.
var _ driven.ConfigStore = (*Overlay)(nil)

// Variables maps environment variable names onto config keys.
var Variables = map[string]string{
	"DROPBOX_ACCESS_TOKEN":   "dropbox.access_token",
	"DROPBOX_REFRESH_TOKEN":  "dropbox.refresh_token",
	"DROPBOX_APP_KEY":        "dropbox.app_key",
	"DROPBOX_APP_SECRET":     "dropbox.app_secret",
	"DROPBOX_INPUT_PATH":     "processing.input_path",
	"DROPBOX_OUTPUT_PATH":    "processing.output_path",
	"OUTPUT_SUFFIX":          "processing.suffix",
	"CONCURRENCY":            "processing.concurrency",
	"OUTPUT_FORMAT":          "enhancement.output_format",
	"OPENAI_IMAGE_ENDPOINT":  "enhancement.endpoint",
	"OPENAI_IMAGE_MODEL":     "enhancement.model",
	"OPENAI_RESPONSES_MODEL": "enhancement.responses_model",
	"OPENAI_IMAGE_QUALITY":   "enhancement.quality",
	"OPENAI_API_KEY":         "openai.api_key",
	"OPENAI_BASE_URL":        "openai.base_url",
	"PORT":                   "server.port",
	"GLOWBOX_PROVIDER":       "provider",
	"GLOWBOX_STORE":          "store",
	"GLOWBOX_DATA_DIR":       "data_dir",
	"GLOWBOX_POSTGRES_DSN":   "postgres.dsn",
	"GLOWBOX_RUN_INTERVAL":   "run.interval",
	"GLOWBOX_FS_BASE_DIR":    "filesystem.base_dir",
	"GLOWBOX_LOG_FORMAT":     "log.format",
	"GLOWBOX_LOG_FILE":       "log.file",
}

// LookupFunc resolves an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(string) (string, bool)

// Overlay is a driven.ConfigStore that reads mapped environment variables
// before falling back to a base store. Empty variables count as unset.
type Overlay struct {
	base   driven.ConfigStore
	values map[string]string
}

// NewOverlay snapshots the mapped variables through lookup.
// A nil lookup uses os.LookupEnv.
func NewOverlay(base driven.ConfigStore, lookup LookupFunc) *Overlay {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	values := make(map[string]string)
	for name, key := range Variables {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			values[key] = v
		}
	}
	return &Overlay{base: base, values: values}
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Get returns the environment value when set, else the base value.
func (o *Overlay) Get(key string) (any, bool) {
	if v, ok := o.values[key]; ok {
		return v, true
	}
	return o.base.Get(key)
}

// GetString retrieves a string configuration value.
func (o *Overlay) GetString(key string) string {
	if v, ok := o.values[key]; ok {
		return v
	}
	return o.base.GetString(key)
}

// GetInt parses environment values as base-10 integers. Unparseable
// values fall through to the base store.
func (o *Overlay) GetInt(key string) int {
	if v, ok := o.values[key]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return o.base.GetInt(key)
}

// GetBool parses environment values with strconv.ParseBool.
func (o *Overlay) GetBool(key string) bool {
	if v, ok := o.values[key]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return o.base.GetBool(key)
}

// Set writes to the base store. A key overridden by the environment
// keeps reading the environment value.
func (o *Overlay) Set(key string, value any) error {
	return o.base.Set(key, value)
}

// Path returns the base store path.
func (o *Overlay) Path() string {
	return o.base.Path()
}

// Overridden lists config keys currently supplied by the environment.
func (o *Overlay) Overridden() []string {
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
