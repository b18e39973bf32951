package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWithTraceIDContext(t *testing.T) {
	t.Run("keeps provided id", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "given")
		assert.Equal(t, "given", GetTraceID(ctx))
	})

	t.Run("generates uuid when empty", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "")
		_, err := uuid.Parse(GetTraceID(ctx))
		assert.NoError(t, err)
	})
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	ctx := context.WithValue(context.Background(), TraceIDKey, 42)
	assert.Empty(t, GetTraceID(ctx), "non-string values are ignored")
}
