// mongo предоставляет журнал активности (storage.Activity) на базе MongoDB.
package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// activityDoc - представление записи в коллекции.
type activityDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	Action       string             `bson:"action"`
	ResourceType string             `bson:"resource_type"`
	ResourceID   string             `bson:"resource_id,omitempty"`
	Metadata     bson.M             `bson:"metadata,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d activityDoc) toModel() models.ActivityEntry {
	var meta map[string]any
	if len(d.Metadata) > 0 {
		meta = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			meta[k] = v
		}
	}

	return models.ActivityEntry{
		ID:           d.ID.Hex(),
		UserID:       d.UserID,
		Action:       d.Action,
		ResourceType: d.ResourceType,
		ResourceID:   d.ResourceID,
		Metadata:     meta,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

// InsertActivity сохраняет запись. CreatedAt проставляется, если не задан.
// Ошибки: storage.ErrInvalidArgument при пустых user_id/action.
func (m *Mongo) InsertActivity(ctx context.Context, entry *models.ActivityEntry) (*models.ActivityEntry, error) {
	const op = "storage/mongo/InsertActivity"

	if entry == nil || strings.TrimSpace(entry.UserID) == "" || strings.TrimSpace(entry.Action) == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	// MongoDB DateTime хранит миллисекунды.
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = created.UTC().Truncate(time.Millisecond)

	doc := activityDoc{
		ID:           primitive.NewObjectID(),
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Metadata:     bson.M(entry.Metadata),
		CreatedAt:    created,
	}

	if _, err := m.activity.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	out := doc.toModel()
	return &out, nil
}

// ActivityByUser возвращает последние limit записей пользователя.
// Сортировка: created_at DESC, _id DESC.
func (m *Mongo) ActivityByUser(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	const op = "storage/mongo/ActivityByUser"

	if limit <= 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := m.activity.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	items := make([]models.ActivityEntry, 0, limit)
	for cur.Next(ctx) {
		var doc activityDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}
		items = append(items, doc.toModel())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

var _ storage.Activity = (*Mongo)(nil)
