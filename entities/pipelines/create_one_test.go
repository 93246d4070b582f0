package pipelines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLadder(t *testing.T) {
	stages := defaultLadder()
	require.Len(t, stages, 8)

	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"Prospect", "Contacté", "Qualification", "Démo planifiée",
		"Proposition", "Négociation", "Gagné", "Perdu",
	}, names)

	// Only the first stage receives newly placed contacts.
	for i, s := range stages {
		assert.Equal(t, i == 0, s.IsDefault, "is_default pour %s", s.Name)
		assert.NotEmpty(t, s.Color)
	}

	// A planned demo without a committed next step is how deals go cold.
	for _, s := range stages {
		assert.Equal(t, s.Name == "Démo planifiée", s.RequiresNextStep, "requires_next_step pour %s", s.Name)
	}
}
