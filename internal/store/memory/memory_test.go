package memory

import (
	"testing"

	"github.com/pantrylab/pantry-service/internal/store"
	"github.com/pantrylab/pantry-service/internal/store/storetest"
)

func TestMemoryStoreCompliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}
