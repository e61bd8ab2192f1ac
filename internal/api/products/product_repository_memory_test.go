package products

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

func TestMemoryProductRepo_ListWhilePatching(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepo()
	created, err := repo.Create(ctx, "", types.ProductParams{Title: "Ring", Price: 10, Category: "jewelery"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, "", types.ProductParams{Title: "Watch", Price: 20, Category: "jewelery"})
	require.NoError(t, err)

	const rounds = 2000
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			title := fmt.Sprintf("Ring %d", i)
			_, err := repo.Patch(ctx, created.ID, types.ProductPatch{Title: &title})
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			list, err := repo.List(ctx, types.ProductFilter{Category: "jewelery", Sort: types.SortAsc})
			assert.NoError(t, err)
			assert.Len(t, list, 2)
		}
	}()
	wg.Wait()

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Ring %d", rounds-1), got.Title)
}

func TestMemoryProductRepo_ListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepo()
	created, err := repo.Create(ctx, "", types.ProductParams{Title: "Lamp", Price: 5, Category: "electronics"})
	require.NoError(t, err)

	list, err := repo.List(ctx, types.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	list[0].Title = "changed by caller"

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Title)
}
