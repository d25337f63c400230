package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

const maxInsertRaces = 3

var errInsertRace = errors.New("client mirror: concurrent insert")

type mirrorRow struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Login     string    `gorm:"column:login"`
	Active    bool      `gorm:"column:active"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (mirrorRow) TableName() string { return "client_mirror" }

// ClientMirrorStore keeps the client mirror in Postgres. Updates lock the
// row with SELECT ... FOR UPDATE; first inserts race on the primary key.
type ClientMirrorStore struct {
	db *gorm.DB
}

func NewClientMirrorStore(db *gorm.DB) *ClientMirrorStore {
	return &ClientMirrorStore{db: db}
}

func (s *ClientMirrorStore) Upsert(ctx context.Context, update domain.MirrorUpdate) (domain.ClientMirrorRecord, domain.UpsertOutcome, error) {
	var (
		rec     domain.ClientMirrorRecord
		outcome domain.UpsertOutcome
		err     error
	)
	for i := 0; i < maxInsertRaces; i++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			rec, outcome, err = s.upsertTx(tx, update)
			return err
		})
		if !errors.Is(err, errInsertRace) {
			break
		}
	}
	if err != nil && !errors.Is(err, domain.ErrIdentityConflict) {
		return domain.ClientMirrorRecord{}, "", err
	}
	return rec, outcome, err
}

func (s *ClientMirrorStore) upsertTx(tx *gorm.DB, update domain.MirrorUpdate) (domain.ClientMirrorRecord, domain.UpsertOutcome, error) {
	id := update.ClientID.String()

	var row mirrorRow
	var existing *domain.ClientMirrorRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return domain.ClientMirrorRecord{}, "", fmt.Errorf("lock mirror record: %w", err)
	default:
		existing = &domain.ClientMirrorRecord{ID: update.ClientID, Login: row.Login, Active: row.Active}
	}

	rec, outcome, err := domain.Merge(existing, update)
	if err != nil || outcome == domain.OutcomeUnchanged {
		return rec, outcome, err
	}

	now := time.Now().UTC()
	if existing == nil {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&mirrorRow{ID: id, Login: rec.Login, Active: rec.Active, UpdatedAt: now})
		if res.Error != nil {
			return domain.ClientMirrorRecord{}, "", fmt.Errorf("insert mirror record: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ClientMirrorRecord{}, "", errInsertRace
		}
		return rec, outcome, nil
	}

	err = tx.Model(&mirrorRow{}).Where("id = ?", id).
		Updates(map[string]any{"login": rec.Login, "active": rec.Active, "updated_at": now}).Error
	if err != nil {
		return domain.ClientMirrorRecord{}, "", fmt.Errorf("update mirror record: %w", err)
	}
	return rec, outcome, nil
}

func (s *ClientMirrorStore) Exists(ctx context.Context, clientID uuid.UUID) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&mirrorRow{}).Where("id = ?", clientID.String()).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count mirror record: %w", err)
	}
	return n > 0, nil
}

func (s *ClientMirrorStore) Get(ctx context.Context, clientID uuid.UUID) (*domain.ClientMirrorRecord, error) {
	var row mirrorRow
	err := s.db.WithContext(ctx).Where("id = ?", clientID.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find mirror record: %w", err)
	}
	return &domain.ClientMirrorRecord{ID: clientID, Login: row.Login, Active: row.Active}, nil
}
