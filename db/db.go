package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	SurveysCollection   = "surveys"
	ResponsesCollection = "survey_responses"
	SessionsCollection  = "sessions"
	AnswersCollection   = "answers"
	ReportsCollection   = "reports"
)

// Store owns the MongoDB client. It is opened once in main, handed to every
// service and closed on shutdown.
type Store struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewStore wraps an existing database handle. Tests use it with the mtest
// mock deployment.
func NewStore(database *mongo.Database) *Store {
	return &Store{Client: database.Client(), Database: database}
}

// Collection returns a collection by name
func (s *Store) Collection(name string) *mongo.Collection {
	return s.Database.Collection(name)
}

func (s *Store) Surveys() *mongo.Collection   { return s.Collection(SurveysCollection) }
func (s *Store) Responses() *mongo.Collection { return s.Collection(ResponsesCollection) }
func (s *Store) Sessions() *mongo.Collection  { return s.Collection(SessionsCollection) }
func (s *Store) Answers() *mongo.Collection   { return s.Collection(AnswersCollection) }
func (s *Store) Reports() *mongo.Collection   { return s.Collection(ReportsCollection) }

// extractDBName parses the database name from the URI, falling back to def
func extractDBName(uri, def string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return def
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // Trim leading '/'
	}
	return def
}

// Connect establishes a connection to MongoDB. When dbName is empty the name
// is taken from the URI path.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if dbName == "" {
		dbName = extractDBName(uri, "survey_db")
	}
	return &Store{Client: client, Database: client.Database(dbName)}, nil
}

// Ping checks the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the services rely on. The survey_number
// index is unique and partial so surveys without a natural key do not collide.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	surveyNumber := mongo.IndexModel{
		Keys: bson.D{{Key: "survey_number", Value: 1}},
		Options: options.Index().
			SetName("survey_number_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"survey_number": bson.M{"$exists": true}}),
	}
	if _, err := s.Surveys().Indexes().CreateOne(ctx, surveyNumber); err != nil {
		return fmt.Errorf("create surveys index: %w", err)
	}

	responseLinks := []mongo.IndexModel{
		{Keys: bson.D{{Key: "survey_id", Value: 1}}},
		{Keys: bson.D{{Key: "survey_number", Value: 1}}},
	}
	if _, err := s.Responses().Indexes().CreateMany(ctx, responseLinks); err != nil {
		return fmt.Errorf("create survey_responses indexes: %w", err)
	}

	if _, err := s.Answers().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "question_index", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create answers index: %w", err)
	}
	return nil
}
