package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glowbox/internal/adapters/driven/storage/memory"
)

func lookupFrom(m map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestOverlay_EnvironmentTakesPrecedence(t *testing.T) {
	base := memory.NewConfigStore(map[string]any{
		"processing.input_path": "/FromFile",
		"processing.suffix":     "_FILE",
	})
	overlay := NewOverlay(base, lookupFrom(map[string]string{
		"DROPBOX_INPUT_PATH": "/FromEnv",
	}))

	assert.Equal(t, "/FromEnv", overlay.GetString("processing.input_path"))
	assert.Equal(t, "_FILE", overlay.GetString("processing.suffix"))

	val, ok := overlay.Get("processing.input_path")
	assert.True(t, ok)
	assert.Equal(t, "/FromEnv", val)
}

func TestOverlay_EmptyVariableIsUnset(t *testing.T) {
	base := memory.NewConfigStore(map[string]any{"enhancement.output_format": "png"})
	overlay := NewOverlay(base, lookupFrom(map[string]string{"OUTPUT_FORMAT": "  "}))

	assert.Equal(t, "png", overlay.GetString("enhancement.output_format"))
	assert.Empty(t, overlay.Overridden())
}

func TestOverlay_GetIntParsesStrings(t *testing.T) {
	base := memory.NewConfigStore(map[string]any{"processing.concurrency": 2, "server.port": 3000})
	overlay := NewOverlay(base, lookupFrom(map[string]string{
		"CONCURRENCY": "8",
		"PORT":        "eighty",
	}))

	assert.Equal(t, 8, overlay.GetInt("processing.concurrency"))
	assert.Equal(t, 3000, overlay.GetInt("server.port"))
}

func TestOverlay_GetBool(t *testing.T) {
	Variables["GLOWBOX_TEST_FLAG"] = "test.flag"
	defer delete(Variables, "GLOWBOX_TEST_FLAG")

	overlay := NewOverlay(memory.NewConfigStore(), lookupFrom(map[string]string{"GLOWBOX_TEST_FLAG": "true"}))

	assert.True(t, overlay.GetBool("test.flag"))
	assert.False(t, overlay.GetBool("missing"))
}

func TestOverlay_SetWritesBase(t *testing.T) {
	base := memory.NewConfigStore()
	overlay := NewOverlay(base, lookupFrom(nil))

	require.NoError(t, overlay.Set("processing.suffix", "_HDR"))

	assert.Equal(t, "_HDR", base.GetString("processing.suffix"))
	assert.Equal(t, ":memory:", overlay.Path())
}

func TestOverlay_Overridden(t *testing.T) {
	overlay := NewOverlay(memory.NewConfigStore(), lookupFrom(map[string]string{
		"OPENAI_API_KEY":   "sk-test",
		"GLOWBOX_PROVIDER": "filesystem",
		"UNRELATED":        "x",
	}))

	assert.Equal(t, []string{"openai.api_key", "provider"}, overlay.Overridden())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GLOWBOX_DOTENV_TEST=loaded\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("GLOWBOX_DOTENV_TEST") })

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "loaded", os.Getenv("GLOWBOX_DOTENV_TEST"))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GLOWBOX_DOTENV_KEEP=file\n"), 0600))
	t.Setenv("GLOWBOX_DOTENV_KEEP", "process")

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "process", os.Getenv("GLOWBOX_DOTENV_KEEP"))
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
