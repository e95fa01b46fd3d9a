package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterConfig_DefaultValidates(t *testing.T) {
	assert.NoError(t, DefaultRouterConfig().Validate())
}

func TestRouterConfig_Validate_MaxSplitsAboveThreeIsInvalid(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.MaxSplits = 4

	err := cfg.Validate()
	require.Error(t, err)
	var configErr ConfigInvalidError
	assert.ErrorAs(t, err, &configErr)
}

func TestRouterConfig_Validate_MaxSplitsBelowOneIsInvalid(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.MaxSplits = 0

	err := cfg.Validate()
	require.Error(t, err)
	var configErr ConfigInvalidError
	assert.ErrorAs(t, err, &configErr)
}

func TestRouterConfig_Validate_DistributionPercentMustDivideHundred(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.DistributionPercent = 7

	err := cfg.Validate()
	require.Error(t, err)
	var configErr ConfigInvalidError
	assert.ErrorAs(t, err, &configErr)
}

func TestRouterConfig_Validate_DistributionPercentMustBePositive(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.DistributionPercent = 0

	err := cfg.Validate()
	require.Error(t, err)
	var configErr ConfigInvalidError
	assert.ErrorAs(t, err, &configErr)
}

func TestRouterConfig_Validate_MaxSwapsPerPathMustBeAtLeastOne(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.MaxSwapsPerPath = 0

	err := cfg.Validate()
	require.Error(t, err)
	var configErr ConfigInvalidError
	assert.ErrorAs(t, err, &configErr)
}
