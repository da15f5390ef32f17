package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yungbote/pao-report-backend/internal/domain/pao"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

const mongoProgramRef = "pao_id"

type mongoStore struct {
	log    *logger.Logger
	client *mongo.Client
	db     *mongo.Database
	names  CollectionNames
}

// NewMongoStore keeps activities in their own collection, linked to the
// program through pao_id.
func NewMongoStore(log *logger.Logger, client *mongo.Client, dbName string, names CollectionNames) RecordStore {
	return &mongoStore{
		log:    log.With("service", "MongoRecordStore"),
		client: client,
		db:     client.Database(dbName),
		names:  names.withDefaults("paos", "pao_activities"),
	}
}

func (s *mongoStore) GetProgram(ctx context.Context, id string) (pao.Document, error) {
	coll := s.db.Collection(s.names.Programs)
	var raw bson.M
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if oid, oidErr := primitive.ObjectIDFromHex(id); oidErr == nil {
			err = coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&raw)
		}
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pao.ErrNotFound
		}
		return nil, fmt.Errorf("mongo find %s/%s: %w", s.names.Programs, id, err)
	}
	return normalizeBSONDoc(raw), nil
}

func (s *mongoStore) ListActivities(ctx context.Context, id string) ([]pao.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: string(pao.FieldNumber), Value: 1}})
	cur, err := s.db.Collection(s.names.Activities).Find(ctx, bson.M{mongoProgramRef: id}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find activities for %s: %w", id, err)
	}
	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("mongo decode activities for %s: %w", id, err)
	}
	out := make([]pao.Document, 0, len(raws))
	for _, raw := range raws {
		out = append(out, normalizeBSONDoc(raw))
	}
	return out, nil
}

func (s *mongoStore) GetActivity(ctx context.Context, id string, number int) (pao.Document, error) {
	var raw bson.M
	filter := bson.M{mongoProgramRef: id, string(pao.FieldNumber): number}
	err := s.db.Collection(s.names.Activities).FindOne(ctx, filter).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pao.ErrNotFound
		}
		return nil, fmt.Errorf("mongo find activity %d for %s: %w", number, id, err)
	}
	return normalizeBSONDoc(raw), nil
}

func (s *mongoStore) FindTutorName(ctx context.Context, id string) (string, error) {
	var raw bson.M
	filter := bson.M{string(pao.FieldUserTutor): id, string(pao.FieldUserRole): pao.RoleTutor}
	err := s.db.Collection(s.names.Users).FindOne(ctx, filter).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", pao.ErrNotFound
		}
		return "", fmt.Errorf("mongo tutor query: %w", err)
	}
	return strings.TrimSpace(pao.FieldsOf(normalizeBSONDoc(raw)).String(pao.FieldUserName)), nil
}

func (s *mongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func normalizeBSONDoc(m bson.M) pao.Document {
	out, _ := normalizeBSON(m).(map[string]any)
	return pao.Document(out)
}

// normalizeBSON rewrites driver types into the plain shapes pao.Fields reads.
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeBSON(val)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, 0, len(t))
		for _, val := range t {
			out = append(out, normalizeBSON(val))
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case int32:
		return int64(t)
	default:
		return v
	}
}
