package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/delegator/internal/models"
)

type fakeWorker struct {
	name     string
	category models.Category
}

func (f *fakeWorker) Name() string              { return f.name }
func (f *fakeWorker) Category() models.Category { return f.category }
func (f *fakeWorker) Invoke(_ context.Context, _ Invocation) (*models.WorkerResponse, error) {
	return &models.WorkerResponse{Confidence: models.NumericConfidence(5)}, nil
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeWorker{name: "trivy", category: models.CategorySecurity}))
	require.NoError(t, r.Register(&fakeWorker{name: "bandit", category: models.CategorySecurity}))
	require.NoError(t, r.Register(&fakeWorker{name: "librarian", category: models.CategoryResearch}))

	workers, err := r.Resolve(models.CategorySecurity)
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, "bandit", workers[0].Name(), "resolution order is sorted by name")
	assert.Equal(t, "trivy", workers[1].Name())

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []models.Category{models.CategoryResearch, models.CategorySecurity}, r.Categories())
}

func TestRegistryRejectsBadRegistrations(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&fakeWorker{name: "", category: models.CategoryDocs}))
	assert.Error(t, r.Register(&fakeWorker{name: "w", category: "deploy"}))

	require.NoError(t, r.Register(&fakeWorker{name: "w", category: models.CategoryDocs}))
	err := r.Register(&fakeWorker{name: "w", category: models.CategoryDocs})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestResolveUnroutableCategory(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeWorker{name: "librarian", category: models.CategoryResearch}))

	_, err := r.Resolve(models.CategoryCodegen)
	require.Error(t, err)

	var unroutable *UnroutableTaskError
	require.True(t, errors.As(err, &unroutable))
	assert.Equal(t, models.CategoryCodegen, unroutable.Category)
	assert.Equal(t, []string{"librarian"}, unroutable.Available)
	assert.Contains(t, unroutable.Error(), "no worker registered")
}
