package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSource) Load(ctx context.Context) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	d := NewData()
	d.Materials["PET"] = nil
	return d, nil
}

func TestRepositoryCachesUntilInvalidated(t *testing.T) {
	src := &countingSource{}
	repo := NewRepository(src, nil)
	ctx := context.Background()

	first, err := repo.Load(ctx)
	require.NoError(t, err)
	second, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, uint64(1), repo.Version())

	repo.Invalidate()
	third, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, uint64(2), repo.Version())
}

func TestRepositoryReload(t *testing.T) {
	src := &countingSource{}
	repo := NewRepository(src, nil)
	ctx := context.Background()

	before, err := repo.Load(ctx)
	require.NoError(t, err)

	src.err = errors.New("disk gone")
	_, err = repo.Reload(ctx)
	require.ErrorIs(t, err, ErrDataUnavailable)

	kept, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, before, kept)

	src.err = nil
	after, err := repo.Reload(ctx)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
}

func TestRepositoryLoadFailureIsNotRetried(t *testing.T) {
	src := &countingSource{err: errors.New("corrupt")}
	repo := NewRepository(src, nil)

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorContains(t, err, "corrupt")
	assert.Equal(t, 1, src.calls)
}

func TestRepositoryConcurrentLoad(t *testing.T) {
	src := &countingSource{}
	repo := NewRepository(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Load(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, src.calls)
}
