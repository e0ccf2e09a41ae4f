package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

func TestWatchCmd_RunsAtStartupAndOnChange(t *testing.T) {
	fake := newFakeServices()
	fake.changes = 2
	cleanup := useServices(fake)
	defer cleanup()

	out, err := executeCommand("watch")

	require.NoError(t, err)
	assert.Contains(t, out, "Watching for changes")
	assert.Equal(t, []domain.Trigger{domain.TriggerWatch, domain.TriggerWatch, domain.TriggerWatch}, fake.processor.runs())
}
