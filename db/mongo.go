package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tripsheet/models"
)

type itineraryDoc struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	models.ItineraryRecord `bson:",inline"`
}

func (d itineraryDoc) record() models.ItineraryRecord {
	rec := d.ItineraryRecord
	rec.ID = d.ID.Hex()
	if rec.Days == nil {
		rec.Days = []models.DayEntry{}
	}
	return rec
}

// MongoRepository stores one document per itinerary.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	now        func() time.Time
}

// NewMongoRepository connects, pings and ensures the created_at index.
func NewMongoRepository(ctx context.Context, uri, database, collection string, timeout time.Duration) (*MongoRepository, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storageErr("connect", err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storageErr("connect", err, "mongo ping")
	}

	repo := &MongoRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
		timeout:    timeout,
		now:        time.Now,
	}
	_, err = repo.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storageErr("connect", err, "create created_at index")
	}
	return repo, nil
}

func (m *MongoRepository) Create(ctx context.Context, rec models.ItineraryRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	rec.CreatedAt = m.now().UTC().Truncate(time.Millisecond)
	if rec.Days == nil {
		rec.Days = []models.DayEntry{}
	}
	res, err := m.collection.InsertOne(ctx, itineraryDoc{ItineraryRecord: rec})
	if err != nil {
		return "", storageErr("create", err, "insert itinerary")
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", storageErr("create", errors.Errorf("unexpected id type %T", res.InsertedID), "insert itinerary")
	}
	return oid.Hex(), nil
}

func (m *MongoRepository) ListAll(ctx context.Context) ([]models.ItineraryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storageErr("list", err, "find itineraries")
	}
	defer cursor.Close(ctx)

	var docs []itineraryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storageErr("list", err, "decode itineraries")
	}

	out := make([]models.ItineraryRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return out, nil
}

func (m *MongoRepository) GetByID(ctx context.Context, id string) (models.ItineraryRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ItineraryRecord{}, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc itineraryDoc
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ItineraryRecord{}, ErrNotFound
	}
	if err != nil {
		return models.ItineraryRecord{}, storageErr("get", err, "find itinerary "+id)
	}
	return doc.record(), nil
}

func (m *MongoRepository) Update(ctx context.Context, id string, rec models.ItineraryRecord) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	days := rec.Days
	if days == nil {
		days = []models.DayEntry{}
	}
	update := bson.M{"$set": bson.M{
		"customer_name": rec.CustomerName,
		"details":       rec.Details,
		"itinerary":     days,
		"total_cost":    rec.TotalCost,
	}}
	res, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return storageErr("update", err, "update itinerary "+id)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return storageErr("delete", err, "delete itinerary "+id)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return storageErr("close", err, "mongo disconnect")
	}
	return nil
}
