package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

// MovieRepository stores movies. Prices are kept as decimal strings.
type MovieRepository struct {
	coll *mongo.Collection
}

func NewMovieRepository(db *mongo.Database) *MovieRepository {
	return &MovieRepository{coll: db.Collection(movieCollection)}
}

type movieDoc struct {
	ID             string    `bson:"_id"`
	Title          string    `bson:"title"`
	BasePrice      string    `bson:"base_price"`
	ScreeningRoom  int       `bson:"screening_room"`
	AvailableSeats int       `bson:"available_seats"`
	ScreeningTime  time.Time `bson:"screening_time"`
}

func toMovieDoc(m *domain.Movie) movieDoc {
	return movieDoc{
		ID:             m.ID.String(),
		Title:          m.Title,
		BasePrice:      m.BasePrice.String(),
		ScreeningRoom:  m.ScreeningRoom,
		AvailableSeats: m.AvailableSeats,
		ScreeningTime:  m.ScreeningTime.UTC(),
	}
}

func (d movieDoc) toDomain() (*domain.Movie, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("movie %q: %w", d.ID, err)
	}
	price, err := decimal.NewFromString(d.BasePrice)
	if err != nil {
		return nil, fmt.Errorf("movie %s price: %w", d.ID, err)
	}
	return &domain.Movie{
		ID:             id,
		Title:          d.Title,
		BasePrice:      price,
		ScreeningRoom:  d.ScreeningRoom,
		AvailableSeats: d.AvailableSeats,
		ScreeningTime:  d.ScreeningTime.UTC(),
	}, nil
}

func (r *MovieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	if _, err := r.coll.InsertOne(ctx, toMovieDoc(movie)); err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

func (r *MovieRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Movie, error) {
	var doc movieDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMovieNotFound
		}
		return nil, fmt.Errorf("find movie: %w", err)
	}
	return doc.toDomain()
}

func (r *MovieRepository) List(ctx context.Context) ([]*domain.Movie, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "screening_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer cur.Close(ctx)

	var docs []movieDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	out := make([]*domain.Movie, 0, len(docs))
	for _, d := range docs {
		m, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ReplaceIfUnchanged matches on every stored field of expected, so a
// concurrent seat reservation or edit makes the replace miss.
func (r *MovieRepository) ReplaceIfUnchanged(ctx context.Context, expected, updated *domain.Movie) error {
	prev := toMovieDoc(expected)
	filter := bson.M{
		"_id":             prev.ID,
		"title":           prev.Title,
		"base_price":      prev.BasePrice,
		"screening_room":  prev.ScreeningRoom,
		"available_seats": prev.AvailableSeats,
		"screening_time":  prev.ScreeningTime,
	}
	res, err := r.coll.ReplaceOne(ctx, filter, toMovieDoc(updated))
	if err != nil {
		return fmt.Errorf("replace movie: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, expected.ID); err != nil {
			return err
		}
		return domain.ErrPreconditionFailed
	}
	return nil
}

func (r *MovieRepository) ReserveSeat(ctx context.Context, id uuid.UUID) (*domain.Movie, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": id.String(), "available_seats": bson.M{"$gt": 0}}

	var doc movieDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"available_seats": -1}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, ferr := r.FindByID(ctx, id); ferr != nil {
				return nil, ferr
			}
			return nil, domain.ErrNoSeatsAvailable
		}
		return nil, fmt.Errorf("reserve seat: %w", err)
	}
	return doc.toDomain()
}

func (r *MovieRepository) ReleaseSeat(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$inc": bson.M{"available_seats": 1}})
	if err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMovieNotFound
	}
	return nil
}
