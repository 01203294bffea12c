package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

func TestProviderFallsBackToDefault(t *testing.T) {
	provider := NewProvider(
		EvidencePolicy{models.EvidencePhoto: 1},
		map[string]EvidencePolicy{
			"electronics": {models.EvidencePhoto: 2, models.EvidenceVideo: 1},
		},
	)

	require.Equal(t, 2, provider.ForCategory("electronics")[models.EvidencePhoto])
	require.Equal(t, 1, provider.ForCategory("electronics")[models.EvidenceVideo])
	require.Equal(t, 1, provider.ForCategory("apparel")[models.EvidencePhoto])
	require.Equal(t, 1, provider.ForCategory("")[models.EvidencePhoto])
}

func TestProviderCopiesInputs(t *testing.T) {
	defaults := EvidencePolicy{models.EvidencePhoto: 1}
	provider := NewProvider(defaults, nil)

	defaults[models.EvidencePhoto] = 9
	require.Equal(t, 1, provider.ForCategory("any")[models.EvidencePhoto])
}
