package repository_test

import (
	"context"
	"errors"
	"testing"

	"wisefido-ts-bridge/internal/catalog"
	"wisefido-ts-bridge/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCatalog CatalogSource 的测试替身
type fakeCatalog struct {
	users    map[string]*catalog.User
	bulk     map[[2]string]string
	err      error
	getCalls int
}

func (f *fakeCatalog) GetUser(ctx context.Context, userID string) (*catalog.User, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.users[userID], nil
}

func (f *fakeCatalog) UsersAPIKeyMap(ctx context.Context) (map[[2]string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bulk, nil
}

func TestCredentialRepository_ResolveCachesPositiveResult(t *testing.T) {
	source := &fakeCatalog{
		users: map[string]*catalog.User{
			"U1": {
				UserID: "U1",
				RoomID: "R1",
				ThingspeakInfo: &catalog.ThingspeakInfo{
					APIKeys: []string{"WRITEKEY", "SPARE"},
					Channel: "12345",
				},
			},
		},
	}
	repo := repository.NewCredentialRepository(source, zap.NewNop())

	key, channel, ok := repo.Resolve(context.Background(), "U1", "R1")
	require.True(t, ok)
	require.Equal(t, "WRITEKEY", key)
	require.Equal(t, "12345", channel)
	require.Equal(t, 1, source.getCalls)

	// second resolve served from cache
	_, _, ok = repo.Resolve(context.Background(), "U1", "R1")
	require.True(t, ok)
	require.Equal(t, 1, source.getCalls)
}

func TestCredentialRepository_AbsentNotCached(t *testing.T) {
	source := &fakeCatalog{users: map[string]*catalog.User{}}
	repo := repository.NewCredentialRepository(source, zap.NewNop())

	_, _, ok := repo.Resolve(context.Background(), "U9", "R1")
	require.False(t, ok)

	// absence is not cached: a later call retries against the catalog
	_, _, ok = repo.Resolve(context.Background(), "U9", "R1")
	require.False(t, ok)
	require.Equal(t, 2, source.getCalls)
}

func TestCredentialRepository_CatalogErrorNotCached(t *testing.T) {
	source := &fakeCatalog{err: errors.New("catalog down")}
	repo := repository.NewCredentialRepository(source, zap.NewNop())

	_, _, ok := repo.Resolve(context.Background(), "U1", "R1")
	require.False(t, ok)

	// catalog recovers
	source.err = nil
	source.users = map[string]*catalog.User{
		"U1": {
			UserID:         "U1",
			ThingspeakInfo: &catalog.ThingspeakInfo{APIKeys: []string{"K"}},
		},
	}
	key, _, ok := repo.Resolve(context.Background(), "U1", "R1")
	require.True(t, ok)
	require.Equal(t, "K", key)
}

func TestCredentialRepository_Warm(t *testing.T) {
	source := &fakeCatalog{
		bulk: map[[2]string]string{
			{"U1", "R1"}: "K1",
			{"U2", "R2"}: "K2",
		},
	}
	repo := repository.NewCredentialRepository(source, zap.NewNop())
	repo.Warm(context.Background())

	key, _, ok := repo.Resolve(context.Background(), "U2", "R2")
	require.True(t, ok)
	require.Equal(t, "K2", key)
	require.Equal(t, 0, source.getCalls)
}
