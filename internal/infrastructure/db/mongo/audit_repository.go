package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

const auditCollection = "borrow_audit"

// AuditRepository implements ports.AuditRecorder on a MongoDB collection.
type AuditRepository struct {
	db  *mongo.Database
	now func() time.Time
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{db: db, now: time.Now}
}

// EnsureIndexes creates the lookup index on request id and the unique event id index.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(auditCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "request_id", Value: 1}, {Key: "recorded_at", Value: 1}}},
		{Keys: bson.D{{Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

// Record inserts one audit document. A missing EventID or RecordedAt is filled in.
func (r *AuditRepository) Record(ctx context.Context, e domain.AuditEntry) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = r.now()
	}

	doc := bson.M{
		"event_id":    e.EventID,
		"request_id":  e.RequestID,
		"from":        string(e.From),
		"to":          string(e.To),
		"actor_id":    e.ActorID,
		"actor_role":  string(e.ActorRole),
		"item_ids":    e.ItemIDs,
		"recorded_at": e.RecordedAt.UTC(),
	}
	if e.Note != "" {
		doc["note"] = e.Note
	}

	if _, err := r.db.Collection(auditCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: audit event %s already recorded", domain.ErrConflict, e.EventID)
		}
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}

// History returns the audit trail of one request, oldest first.
func (r *AuditRepository) History(ctx context.Context, requestID int64) ([]domain.AuditEntry, error) {
	cur, err := r.db.Collection(auditCollection).Find(ctx,
		bson.M{"request_id": requestID},
		options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("audit find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []auditDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("audit decode: %w", err)
	}
	out := make([]domain.AuditEntry, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

type auditDocument struct {
	EventID    string    `bson:"event_id"`
	RequestID  int64     `bson:"request_id"`
	From       string    `bson:"from"`
	To         string    `bson:"to"`
	ActorID    int64     `bson:"actor_id"`
	ActorRole  string    `bson:"actor_role"`
	ItemIDs    []int64   `bson:"item_ids"`
	Note       string    `bson:"note,omitempty"`
	RecordedAt time.Time `bson:"recorded_at"`
}

func (d auditDocument) toDomain() domain.AuditEntry {
	return domain.AuditEntry{
		EventID:    d.EventID,
		RequestID:  d.RequestID,
		From:       domain.RequestStatus(d.From),
		To:         domain.RequestStatus(d.To),
		ActorID:    d.ActorID,
		ActorRole:  domain.Role(d.ActorRole),
		ItemIDs:    d.ItemIDs,
		Note:       d.Note,
		RecordedAt: d.RecordedAt,
	}
}
