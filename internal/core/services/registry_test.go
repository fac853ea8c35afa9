package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-search/tessera/internal/core/domain"
)

func TestModelRegistryRegister(t *testing.T) {
	t.Run("accepts supported kinds", func(t *testing.T) {
		registry := NewModelRegistry()
		model := newMockModel("clip", domain.MediaImage, domain.MediaText)

		require.NoError(t, registry.Register(domain.MediaImage, model))
		require.NoError(t, registry.Register(domain.MediaText, model))
		assert.Len(t, registry.ModelsFor(domain.MediaImage), 1)
	})

	t.Run("rejects unsupported kind", func(t *testing.T) {
		registry := NewModelRegistry()
		model := newMockModel("clip", domain.MediaImage)

		err := registry.Register(domain.MediaAudio, model)
		assert.ErrorIs(t, err, domain.ErrUnsupportedMedia)
		assert.Empty(t, registry.ModelsFor(domain.MediaAudio))
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		registry := NewModelRegistry()
		model := newMockModel("clip", domain.MediaImage, domain.MediaUnknown)

		err := registry.Register(domain.MediaUnknown, model)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestModelRegistryModelsFor(t *testing.T) {
	registry := NewModelRegistry()

	// Unconfigured kinds yield an empty list, not an error.
	assert.Empty(t, registry.ModelsFor(domain.MediaVideo))

	first := newMockModel("caption", domain.MediaImage)
	second := newMockModel("clip", domain.MediaImage)
	require.NoError(t, registry.Register(domain.MediaImage, first))
	require.NoError(t, registry.Register(domain.MediaImage, second))

	// Registration order is preserved.
	models := registry.ModelsFor(domain.MediaImage)
	require.Len(t, models, 2)
	assert.Equal(t, "caption", models[0].Name())
	assert.Equal(t, "clip", models[1].Name())
}
