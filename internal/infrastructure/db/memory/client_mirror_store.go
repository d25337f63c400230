// Package memory holds in-process storage engines used by tests and by the
// ticket service when MIRROR_BACKEND=memory.
package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

const mirrorTable = "client_mirror"

type mirrorRow struct {
	ID     string
	Login  string
	Active bool
}

func mirrorSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			mirrorTable: {
				Name: mirrorTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.UUIDFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}
}

// ClientMirrorStore keeps the client mirror in a go-memdb table. Write
// transactions are serialized, so a read-merge-write runs atomically.
type ClientMirrorStore struct {
	db *memdb.MemDB
}

func NewClientMirrorStore() (*ClientMirrorStore, error) {
	db, err := memdb.NewMemDB(mirrorSchema())
	if err != nil {
		return nil, fmt.Errorf("memdb mirror: %w", err)
	}
	return &ClientMirrorStore{db: db}, nil
}

func (s *ClientMirrorStore) Upsert(_ context.Context, update domain.MirrorUpdate) (domain.ClientMirrorRecord, domain.UpsertOutcome, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	existing, err := s.lookup(txn, update.ClientID)
	if err != nil {
		return domain.ClientMirrorRecord{}, "", err
	}

	rec, outcome, err := domain.Merge(existing, update)
	if err != nil || outcome == domain.OutcomeUnchanged {
		return rec, outcome, err
	}

	row := &mirrorRow{ID: rec.ID.String(), Login: rec.Login, Active: rec.Active}
	if err := txn.Insert(mirrorTable, row); err != nil {
		return domain.ClientMirrorRecord{}, "", fmt.Errorf("memdb mirror insert: %w", err)
	}
	txn.Commit()
	return rec, outcome, nil
}

func (s *ClientMirrorStore) Exists(ctx context.Context, clientID uuid.UUID) (bool, error) {
	rec, err := s.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return false, nil
		}
		return false, err
	}
	return rec != nil, nil
}

func (s *ClientMirrorStore) Get(_ context.Context, clientID uuid.UUID) (*domain.ClientMirrorRecord, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	rec, err := s.lookup(txn, clientID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrClientNotFound
	}
	return rec, nil
}

func (s *ClientMirrorStore) lookup(txn *memdb.Txn, clientID uuid.UUID) (*domain.ClientMirrorRecord, error) {
	raw, err := txn.First(mirrorTable, "id", clientID.String())
	if err != nil {
		return nil, fmt.Errorf("memdb mirror lookup: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	row := raw.(*mirrorRow)
	return &domain.ClientMirrorRecord{ID: clientID, Login: row.Login, Active: row.Active}, nil
}
