package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDBName(t *testing.T) {
	cases := []struct {
		uri  string
		want string
	}{
		{"mongodb://localhost:27017", "fallback"},
		{"mongodb://localhost:27017/", "fallback"},
		{"mongodb://localhost:27017/surveys", "surveys"},
		{"mongodb+srv://user:pw@cluster0.example.net/alexa_survey?tls=true", "alexa_survey"},
		{"::not a uri", "fallback"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extractDBName(tc.uri, "fallback"), tc.uri)
	}
}

func TestCloseNilStore(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close(context.Background()))
}
