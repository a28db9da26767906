package dynamodb

import (
	"context"
	"fmt"
	"time"

	"catmenu/pkg/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// NonceStore remembers request nonces in the table so replays are caught
// across every instance. A nonce is claimed with a conditional put; DynamoDB
// TTL removes claims once the window has passed.
type NonceStore struct {
	client    Client
	tableName string
	window    time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

type nonceRecord struct {
	PK        string `dynamodbav:"PK"` // NONCE#<user>#<nonce>
	SK        string `dynamodbav:"SK"` // NONCE
	UserID    string `dynamodbav:"UserID"`
	ExpiresAt int64  `dynamodbav:"ExpiresAt"` // unix seconds
	TTL       int64  `dynamodbav:"TTL"`
}

// NewNonceStore creates a NonceStore remembering nonces for window
func NewNonceStore(client Client, tableName string, window time.Duration, logger *zap.Logger) *NonceStore {
	return &NonceStore{
		client:    client,
		tableName: tableName,
		window:    window,
		logger:    logger,
		now:       time.Now,
	}
}

// VerifyNonce implements auth.NonceVerifier
func (s *NonceStore) VerifyNonce(ctx context.Context, userID, nonce string) error {
	if nonce == "" {
		return auth.ErrMissingNonce
	}

	now := s.now()
	expiresAt := now.Add(s.window).Unix()
	av, err := attributevalue.MarshalMap(nonceRecord{
		PK:        noncePK(userID, nonce),
		SK:        nonceSK,
		UserID:    userID,
		ExpiresAt: expiresAt,
		TTL:       expiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal nonce: %w", err)
	}

	// TTL deletion lags, so an expired claim that still exists may be reused.
	cond := expression.Name("PK").AttributeNotExists().
		Or(expression.Name("ExpiresAt").LessThan(expression.Value(now.Unix())))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailure(err) {
			s.logger.Info("Replayed request nonce rejected", zap.String("userID", userID))
			return auth.ErrReusedNonce
		}
		return classifyError("ClaimNonce", err)
	}
	return nil
}
