package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

const maxCASAttempts = 8

// errMirrorContention is transient: the message is retried.
var errMirrorContention = errors.New("client mirror: too many concurrent writers")

// ClientMirrorRepository keeps the client mirror in MongoDB. Every write
// is a compare-and-set on the document version.
type ClientMirrorRepository struct {
	coll *mongo.Collection
}

func NewClientMirrorRepository(db *mongo.Database) *ClientMirrorRepository {
	return &ClientMirrorRepository{coll: db.Collection(mirrorCollection)}
}

type mirrorDoc struct {
	ID      string `bson:"_id"`
	Login   string `bson:"login"`
	Active  bool   `bson:"active"`
	Version int64  `bson:"version"`
}

func (r *ClientMirrorRepository) Upsert(ctx context.Context, update domain.MirrorUpdate) (domain.ClientMirrorRecord, domain.UpsertOutcome, error) {
	id := update.ClientID.String()

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		var doc mirrorDoc
		var existing *domain.ClientMirrorRecord
		err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
		case err != nil:
			return domain.ClientMirrorRecord{}, "", fmt.Errorf("find mirror record: %w", err)
		default:
			existing = &domain.ClientMirrorRecord{ID: update.ClientID, Login: doc.Login, Active: doc.Active}
		}

		rec, outcome, err := domain.Merge(existing, update)
		if err != nil || outcome == domain.OutcomeUnchanged {
			return rec, outcome, err
		}

		if existing == nil {
			_, err := r.coll.InsertOne(ctx, mirrorDoc{ID: id, Login: rec.Login, Active: rec.Active, Version: 1})
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			if err != nil {
				return domain.ClientMirrorRecord{}, "", fmt.Errorf("insert mirror record: %w", err)
			}
			return rec, outcome, nil
		}

		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": id, "version": doc.Version},
			bson.M{
				"$set": bson.M{"login": rec.Login, "active": rec.Active},
				"$inc": bson.M{"version": 1},
			},
		)
		if err != nil {
			return domain.ClientMirrorRecord{}, "", fmt.Errorf("update mirror record: %w", err)
		}
		if res.MatchedCount == 0 {
			continue
		}
		return rec, outcome, nil
	}
	return domain.ClientMirrorRecord{}, "", fmt.Errorf("%w: %s", errMirrorContention, id)
}

func (r *ClientMirrorRepository) Exists(ctx context.Context, clientID uuid.UUID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": clientID.String()})
	if err != nil {
		return false, fmt.Errorf("count mirror record: %w", err)
	}
	return n > 0, nil
}

func (r *ClientMirrorRepository) Get(ctx context.Context, clientID uuid.UUID) (*domain.ClientMirrorRecord, error) {
	var doc mirrorDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": clientID.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find mirror record: %w", err)
	}
	return &domain.ClientMirrorRecord{ID: clientID, Login: doc.Login, Active: doc.Active}, nil
}
