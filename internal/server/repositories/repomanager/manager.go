// Package repomanager wires the per-entity repositories to one record store.
package repomanager

import (
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/checkins"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/duress"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/follows"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/invites"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/preferences"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/testmodes"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users() users.Repository
	Invites() invites.Repository
	Follows() follows.Repository
	Duress() duress.Repository
	Preferences() preferences.Repository
	Checkins() checkins.Repository
	TestModes() testmodes.Repository
}

// Collections lists every collection the repositories use, e.g. for
// provisioning DynamoDB tables.
func Collections() []recordstore.Collection {
	return []recordstore.Collection{
		users.Collection,
		invites.Collection,
		follows.Collection,
		duress.Collection,
		preferences.Collection,
		checkins.Collection,
		testmodes.Collection,
	}
}

// RecordRepositoryManager vends repositories backed by a recordstore.Store.
type RecordRepositoryManager struct {
	store recordstore.Store
}

func NewRecordRepositoryManager(store recordstore.Store) *RecordRepositoryManager {
	return &RecordRepositoryManager{store: store}
}

func (m *RecordRepositoryManager) Users() users.Repository {
	return users.NewRecordRepository(m.store)
}

func (m *RecordRepositoryManager) Invites() invites.Repository {
	return invites.NewRecordRepository(m.store)
}

func (m *RecordRepositoryManager) Follows() follows.Repository {
	return follows.NewRecordRepository(m.store)
}

func (m *RecordRepositoryManager) Duress() duress.Repository {
	return duress.NewRecordRepository(m.store)
}

func (m *RecordRepositoryManager) Preferences() preferences.Repository {
	return preferences.NewRecordRepository(m.store)
}

func (m *RecordRepositoryManager) Checkins() checkins.Repository {
	return checkins.NewRecordRepository(m.store)
}

func (m *RecordRepositoryManager) TestModes() testmodes.Repository {
	return testmodes.NewRecordRepository(m.store)
}
