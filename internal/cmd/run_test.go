package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/delegator/internal/calibration"
	"github.com/calder/delegator/internal/config"
	"github.com/calder/delegator/internal/models"
)

func TestOpenCalibrationStoreCreatesAndRetains(t *testing.T) {
	home := t.TempDir()
	cfg := config.DefaultConfig()

	store, err := openCalibrationStore(cfg, home)
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, filepath.Join(home, "calibration.db"))
}

func TestOpenCalibrationStoreSurvivesReopen(t *testing.T) {
	// Opening twice against the same home exercises the retention pass on a
	// populated database; rows inside the window stay usable.
	home := t.TempDir()
	cfg := config.DefaultConfig()
	ctx := context.Background()

	store, err := openCalibrationStore(cfg, home)
	require.NoError(t, err)
	require.NoError(t, store.RecordInvocation(ctx, &calibration.Invocation{
		SessionID: "s1", TaskID: "t1", Worker: "scanner",
		Category: models.CategorySecurity, Confidence: 7, Validated: true,
	}))
	require.NoError(t, store.Close())

	reopened, err := openCalibrationStore(cfg, home)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.RunCount(ctx, "scanner", models.CategorySecurity)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
