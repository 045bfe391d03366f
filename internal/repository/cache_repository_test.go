package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "meetings:csc", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "meetings:csc", []string{"x"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "meetings:*"))
	assert.NoError(t, repo.Close())
}
