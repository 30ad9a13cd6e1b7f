package tenant

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := NewContext(context.Background(), "acme")

	slug, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "acme", slug)
}

func TestContextUnboundByDefault(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestRunWithTenantNesting(t *testing.T) {
	outer := NewContext(context.Background(), "acme")

	err := RunWithTenant(outer, "globex", func(inner context.Context) error {
		slug, ok := FromContext(inner)
		require.True(t, ok)
		assert.Equal(t, "globex", slug)
		return nil
	})
	require.NoError(t, err)

	// The caller's binding is untouched after the nested run.
	slug, ok := FromContext(outer)
	require.True(t, ok)
	assert.Equal(t, "acme", slug)
}

func TestRunWithTenantPropagatesError(t *testing.T) {
	wantErr := fmt.Errorf("boom")
	err := RunWithTenant(context.Background(), "acme", func(context.Context) error {
		return wantErr
	})
	assert.Equal(t, wantErr, err)
}

func TestContextConcurrentBindings(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			want := fmt.Sprintf("tenant-%d", i)
			ctx := NewContext(context.Background(), want)

			got, ok := FromContext(ctx)
			assert.True(t, ok)
			assert.Equal(t, want, got)
		}(i)
	}
	wg.Wait()
}
