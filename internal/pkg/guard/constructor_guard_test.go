package guard_test

import (
	"errors"
	"sync"
	"testing"

	"carservice/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errQueryNotConstructed = errors.New("query must be created via its constructor")

type searchQuery struct {
	text  string
	guard guard.ConstructorGuard
}

func newSearchQuery(text string) searchQuery {
	return searchQuery{text: text, guard: guard.NewConstructorGuard()}
}

func (q searchQuery) Validate() error {
	return q.guard.Validate(errQueryNotConstructed)
}

func TestConstructorGuard_Validate(t *testing.T) {
	t.Run("constructed guard returns nil", func(t *testing.T) {
		g := guard.NewConstructorGuard()

		require.NoError(t, g.Validate(errQueryNotConstructed))
		require.NoError(t, g.Validate(nil))
	})

	t.Run("zero value returns the supplied error", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(errQueryNotConstructed)

		require.Error(t, err)
		assert.Equal(t, errQueryNotConstructed, err)
	})

	t.Run("zero value falls back to the default error", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(nil)

		require.ErrorIs(t, err, guard.ErrDefaultConstructorGuard)
		assert.Equal(t, "object must be created via its constructor", err.Error())
	})
}

func TestConstructorGuard_EmbeddedUsage(t *testing.T) {
	t.Run("value built by constructor is valid", func(t *testing.T) {
		q := newSearchQuery("2024")

		require.NoError(t, q.Validate())
		assert.Equal(t, "2024", q.text)
	})

	t.Run("struct literal is rejected", func(t *testing.T) {
		q := searchQuery{text: "2024"}

		require.ErrorIs(t, q.Validate(), errQueryNotConstructed)
	})

	t.Run("copies keep the constructed flag", func(t *testing.T) {
		q := newSearchQuery("ORD")
		clone := q

		require.NoError(t, clone.Validate())
	})
}

func TestConstructorGuard_ConcurrentValidate(t *testing.T) {
	g := guard.NewConstructorGuard()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.Validate(errQueryNotConstructed))
		}()
	}
	wg.Wait()
}
