package services

import (
	"context"
	"sync"
	"time"

	"surveyhub/db"
	"surveyhub/internal/events"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const (
	surveysNS   = "survey_db.surveys"
	responsesNS = "survey_db.survey_responses"
	sessionsNS  = "survey_db.sessions"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{Now: func() time.Time { return fixedNow }}
}

func mockOptions() *mtest.Options {
	return mtest.NewOptions().ClientType(mtest.Mock)
}

func storeFor(mt *mtest.T) *db.Store {
	return db.NewStore(mt.DB)
}

// updateReply mimics the server reply to an update command.
func updateReply(matched, modified int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: modified},
	)
}

func deleteReply(deleted int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: deleted})
}

func cursorReply(ns string, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, docs...)
}

// findAndModifyReply returns value as the matched document; no docs means no
// match.
func findAndModifyReply(docs ...bson.D) bson.D {
	if len(docs) == 0 {
		return mtest.CreateSuccessResponse()
	}
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: docs[0]})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
