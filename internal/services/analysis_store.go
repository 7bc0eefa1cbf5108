package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/AnshRaj112/moodjournal-backend/pkg/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const moodAnalysesCollection = "mood_analyses"

type moodAnalysisDoc struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	UserID    string              `bson:"user_id"`
	Text      string              `bson:"text"`
	Encrypted bool                `bson:"encrypted"`
	Result    models.MoodAnalysis `bson:"analysis_result"`
	CreatedAt time.Time           `bson:"created_at"`
}

// MongoAnalysisStore keeps every analysis in the mood_analyses collection.
// The analysed text is sealed with cipher when one is configured.
type MongoAnalysisStore struct {
	col    *mongo.Collection
	cipher *utils.Cipher
}

var _ AnalysisRecorder = (*MongoAnalysisStore)(nil)

func NewMongoAnalysisStore(db *mongo.Database, cipher *utils.Cipher) *MongoAnalysisStore {
	return &MongoAnalysisStore{col: db.Collection(moodAnalysesCollection), cipher: cipher}
}

// EnsureIndexes configures the (user_id, created_at) index used by Recent.
func (s *MongoAnalysisStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("idx_user_created"),
	})
	return err
}

func (s *MongoAnalysisStore) Record(ctx context.Context, rec AnalysisRecord) error {
	text, err := s.cipher.Encrypt(rec.Text)
	if err != nil {
		return err
	}
	_, err = s.col.InsertOne(ctx, moodAnalysisDoc{
		UserID:    rec.UserID.String(),
		Text:      text,
		Encrypted: s.cipher != nil,
		Result:    rec.Result,
		CreatedAt: rec.CreatedAt,
	})
	return err
}

func (s *MongoAnalysisStore) Recent(ctx context.Context, userID uuid.UUID, limit int64) ([]AnalysisRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := s.col.Find(ctx, bson.M{"user_id": userID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []moodAnalysisDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]AnalysisRecord, 0, len(docs))
	for _, d := range docs {
		text := d.Text
		if d.Encrypted {
			if text, err = s.cipher.Decrypt(d.Text); err != nil {
				return nil, err
			}
		}
		out = append(out, AnalysisRecord{UserID: userID, Text: text, Result: d.Result, CreatedAt: d.CreatedAt})
	}
	return out, nil
}
