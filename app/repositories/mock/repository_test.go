package mock

import (
	"testing"

	"yatube/app/repositories"
	"yatube/app/repositories/repotest"
)

func TestMockStoreContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) *repositories.Store {
		return NewStore()
	})
}
