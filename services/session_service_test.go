package services

import (
	"context"
	"errors"
	"testing"

	"surveyhub/internal/events"
	"surveyhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func sessionDoc(id primitive.ObjectID, cursor int32, completed bool) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "device_id", Value: "device-42"},
		{Key: "survey_code", Value: "S1"},
		{Key: "current_question", Value: cursor},
		{Key: "completed", Value: completed},
	}
}

type stubLimiter struct {
	allow bool
	err   error
}

func (l stubLimiter) Allow(context.Context, string) (bool, error) { return l.allow, l.err }

func TestSessionServiceStart(t *testing.T) {
	mt := mtest.New(t, mockOptions())

	mt.Run("opens at question zero", func(mt *mtest.T) {
		pub := &recordingPublisher{}
		svc := NewSessionService(storeFor(mt), pub, nil, testOptions())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		session, err := svc.Start(context.Background(), "device-42", "S1")
		require.NoError(mt, err)
		assert.Equal(mt, 0, session.CurrentQuestion)
		assert.False(mt, session.Completed)
		assert.False(mt, session.ID.IsZero())
		assert.Equal(mt, []string{events.SessionStarted}, pub.types())
	})

	mt.Run("requires device and code", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, nil, testOptions())
		_, err := svc.Start(context.Background(), "", "S1")
		assert.True(mt, errors.Is(err, ErrValidation))
	})
}

func TestSessionServiceSubmitAnswer(t *testing.T) {
	mt := mtest.New(t, mockOptions())
	id := primitive.NewObjectID()

	mt.Run("stamps the pre-increment cursor", func(mt *mtest.T) {
		pub := &recordingPublisher{}
		svc := NewSessionService(storeFor(mt), pub, nil, testOptions())

		mt.AddMockResponses(findAndModifyReply(sessionDoc(id, 0, false)), mtest.CreateSuccessResponse())
		first, err := svc.SubmitAnswer(context.Background(), id.Hex(), "42")
		require.NoError(mt, err)
		assert.Equal(mt, 0, first.QuestionIndex)
		assert.Equal(mt, "device-42", first.DeviceID)
		assert.Equal(mt, id.Hex(), first.SessionID)

		mt.AddMockResponses(findAndModifyReply(sessionDoc(id, 1, false)), mtest.CreateSuccessResponse())
		second, err := svc.SubmitAnswer(context.Background(), id.Hex(), "43")
		require.NoError(mt, err)
		assert.Equal(mt, first.QuestionIndex+1, second.QuestionIndex)

		assert.Equal(mt, []string{events.AnswerRecorded, events.AnswerRecorded}, pub.types())
	})

	mt.Run("missing session", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, nil, testOptions())
		mt.AddMockResponses(findAndModifyReply())
		_, err := svc.SubmitAnswer(context.Background(), id.Hex(), "42")
		assert.True(mt, errors.Is(err, ErrNotFound))
	})

	mt.Run("malformed session id", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, nil, testOptions())
		_, err := svc.SubmitAnswer(context.Background(), "not-an-id", "42")
		assert.True(mt, errors.Is(err, ErrInvalidID))
	})
}

func TestSessionServiceNextQuestion(t *testing.T) {
	mt := mtest.New(t, mockOptions())
	id := primitive.NewObjectID()

	mt.Run("placeholder from cursor", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, nil, testOptions())
		mt.AddMockResponses(cursorReply(sessionsNS, sessionDoc(id, 1, false)))

		next, err := svc.NextQuestion(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.False(mt, next.Completed)
		assert.Equal(mt, 1, next.Index)
		assert.Equal(mt, "Question 2: Sample question text.", next.Question)
		assert.True(mt, next.Placeholder)
	})

	mt.Run("completed marker", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, nil, testOptions())
		mt.AddMockResponses(cursorReply(sessionsNS, sessionDoc(id, 3, true)))

		next, err := svc.NextQuestion(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.True(mt, next.Completed)
		assert.Equal(mt, CompletedMessage, next.Message)
		assert.Empty(mt, next.Question)
	})

	mt.Run("missing", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, nil, testOptions())
		mt.AddMockResponses(cursorReply(sessionsNS))
		_, err := svc.NextQuestion(context.Background(), id.Hex())
		assert.True(mt, errors.Is(err, ErrNotFound))
	})
}

func TestSessionServiceFinish(t *testing.T) {
	mt := mtest.New(t, mockOptions())
	id := primitive.NewObjectID()

	mt.Run("idempotent", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, nil, testOptions())
		mt.AddMockResponses(updateReply(1, 1), updateReply(1, 0))
		assert.NoError(mt, svc.Finish(context.Background(), id.Hex()))
		assert.NoError(mt, svc.Finish(context.Background(), id.Hex()))
	})

	mt.Run("missing", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, nil, testOptions())
		mt.AddMockResponses(updateReply(0, 0))
		assert.True(mt, errors.Is(svc.Finish(context.Background(), id.Hex()), ErrNotFound))
	})
}

func TestSessionServiceReport(t *testing.T) {
	mt := mtest.New(t, mockOptions())

	mt.Run("inserts without checking the session", func(mt *mtest.T) {
		pub := &recordingPublisher{}
		svc := NewSessionService(storeFor(mt), pub, nil, testOptions())
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := svc.Report(context.Background(), "whatever", "confusing wording", models.ReportQuestion)
		require.NoError(mt, err)
		assert.False(mt, id.IsZero())
		assert.Equal(mt, []string{events.ReportFiled}, pub.types())
	})

	mt.Run("no limiter accepts every report", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, nil, testOptions())
		for i := 0; i < 25; i++ {
			mt.AddMockResponses(mtest.CreateSuccessResponse())
			_, err := svc.Report(context.Background(), "sess", "again", models.ReportSurvey)
			require.NoError(mt, err, "report %d", i+1)
		}
	})

	mt.Run("rate limited", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, stubLimiter{allow: false}, testOptions())
		_, err := svc.Report(context.Background(), "s", "spam", models.ReportSurvey)
		assert.True(mt, errors.Is(err, ErrRateLimited))
	})

	mt.Run("limiter failure fails open", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, stubLimiter{err: errors.New("redis down")}, testOptions())
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		_, err := svc.Report(context.Background(), "s", "ok", models.ReportSurvey)
		assert.NoError(mt, err)
	})

	mt.Run("unknown kind", func(mt *mtest.T) {
		svc := NewSessionService(storeFor(mt), nil, nil, testOptions())
		_, err := svc.Report(context.Background(), "s", "x", models.ReportKind("bug"))
		assert.True(mt, errors.Is(err, ErrValidation))
	})
}
