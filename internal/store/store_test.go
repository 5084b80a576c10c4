package store_test

import (
	"testing"

	"github.com/idilsaglam/todo/internal/store"
	"github.com/idilsaglam/todo/internal/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository {
		return store.NewMemory()
	})
}
