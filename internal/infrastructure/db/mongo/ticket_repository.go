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

type TicketRepository struct {
	coll *mongo.Collection
}

func NewTicketRepository(db *mongo.Database) *TicketRepository {
	return &TicketRepository{coll: db.Collection(ticketCollection)}
}

type ticketDoc struct {
	ID         string    `bson:"_id"`
	MovieTime  time.Time `bson:"movie_time"`
	FinalPrice string    `bson:"final_price"`
	ClientID   string    `bson:"client_id"`
	MovieID    string    `bson:"movie_id"`
}

func (d ticketDoc) toDomain() (*domain.Ticket, error) {
	ids := make([]uuid.UUID, 3)
	for i, raw := range []string{d.ID, d.ClientID, d.MovieID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("ticket %q: %w", d.ID, err)
		}
		ids[i] = id
	}
	price, err := decimal.NewFromString(d.FinalPrice)
	if err != nil {
		return nil, fmt.Errorf("ticket %s price: %w", d.ID, err)
	}
	return &domain.Ticket{
		ID:         ids[0],
		MovieTime:  d.MovieTime.UTC(),
		FinalPrice: price,
		ClientID:   ids[1],
		MovieID:    ids[2],
	}, nil
}

func (r *TicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	doc := ticketDoc{
		ID:         t.ID.String(),
		MovieTime:  t.MovieTime.UTC(),
		FinalPrice: t.FinalPrice.String(),
		ClientID:   t.ClientID.String(),
		MovieID:    t.MovieID.String(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (r *TicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	var doc ticketDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return doc.toDomain()
}

func (r *TicketRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Ticket, error) {
	cur, err := r.coll.Find(ctx, bson.M{"client_id": clientID.String()},
		options.Find().SetSort(bson.D{{Key: "movie_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer cur.Close(ctx)

	var docs []ticketDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	out := make([]*domain.Ticket, 0, len(docs))
	for _, d := range docs {
		t, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
