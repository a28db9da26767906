package bus

import (
	"context"
	"errors"
	"testing"

	pkgerrors "catmenu/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type rootsQuery struct{ valid bool }

func (q rootsQuery) Validate() error {
	if !q.valid {
		return errors.New("roots query is invalid")
	}
	return nil
}

type childrenQuery struct{}

func (childrenQuery) Validate() error { return nil }

func TestQueryBus_Ask(t *testing.T) {
	var order []string
	trace := func(name string) Middleware {
		return func(next QueryHandler) QueryHandler {
			return QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
				order = append(order, name)
				return next.Handle(ctx, q)
			})
		}
	}

	b := NewQueryBus(trace("outer"), trace("inner"))
	require.NoError(t, b.Register(rootsQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		return []string{"Men", "Women"}, nil
	})))

	result, err := b.Ask(context.Background(), rootsQuery{valid: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Men", "Women"}, result)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestQueryBus_ValidationAndRegistration(t *testing.T) {
	called := false
	b := NewQueryBus()
	h := QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, b.Register(rootsQuery{}, h))
	assert.Error(t, b.Register(rootsQuery{}, h))

	_, err := b.Ask(context.Background(), rootsQuery{valid: false})
	assert.EqualError(t, err, "roots query is invalid")
	assert.False(t, called)

	_, err = b.Ask(context.Background(), childrenQuery{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestQueryBus_HandlerErrorsKeepTheirType(t *testing.T) {
	b := NewQueryBus()
	require.NoError(t, b.Register(childrenQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		return nil, pkgerrors.NewNotFoundError("category 42")
	})))

	_, err := b.Ask(context.Background(), childrenQuery{})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestLoggingMiddleware_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := NewQueryBus(LoggingMiddleware(zap.New(core)))

	var next error
	require.NoError(t, b.Register(childrenQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		return nil, next
	})))

	_, _ = b.Ask(context.Background(), childrenQuery{})
	next = pkgerrors.NewNotFoundError("category 42")
	_, _ = b.Ask(context.Background(), childrenQuery{})
	next = errors.New("table unreachable")
	_, _ = b.Ask(context.Background(), childrenQuery{})

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, "Query served", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "Query rejected", entries[1].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "Query failed", entries[2].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "childrenQuery", entries[2].ContextMap()["type"])
}
