package dynamodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catmenu/application/ports"
	"catmenu/domain/core/valueobjects"
	pkgerrors "catmenu/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultLockTTL bounds how long a crashed holder can block a menu
	DefaultLockTTL = 30 * time.Second
	// DefaultLockWait is how long Lock retries before reporting a conflict
	DefaultLockWait = 2 * time.Second

	releaseTimeout = 5 * time.Second
)

// DistributedLock serializes writes to a menu across instances using a
// conditional-write lease. The holder renews the lease every ttl/3 until it
// unlocks; an expired lease can be taken over.
type DistributedLock struct {
	client     Client
	tableName  string
	owner      string
	ttl        time.Duration
	wait       time.Duration
	renewEvery time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// lockRecord represents a lock record in DynamoDB
type lockRecord struct {
	PK         string `dynamodbav:"PK"`         // LOCK#menu#<id>
	SK         string `dynamodbav:"SK"`         // LOCK
	LockID     string `dynamodbav:"LockID"`     // Unique lock identifier
	Owner      string `dynamodbav:"Owner"`      // Lock owner identifier
	AcquiredAt string `dynamodbav:"AcquiredAt"` // RFC3339 timestamp
	ExpiresAt  string `dynamodbav:"ExpiresAt"`  // RFC3339 timestamp
	TTL        int64  `dynamodbav:"TTL"`        // Unix timestamp for DynamoDB TTL
}

// NewDistributedLock creates a new distributed lock. Non-positive ttl or wait
// fall back to the defaults.
func NewDistributedLock(client Client, tableName string, ttl, wait time.Duration, logger *zap.Logger) *DistributedLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if wait <= 0 {
		wait = DefaultLockWait
	}
	return &DistributedLock{
		client:     client,
		tableName:  tableName,
		owner:      uuid.NewString(),
		ttl:        ttl,
		wait:       wait,
		renewEvery: ttl / 3,
		logger:     logger,
		now:        time.Now,
	}
}

// Lock implements ports.MenuLocker. It retries with backoff until the lease is
// taken, the wait elapses or ctx ends; the last two yield a CONFLICT error.
func (dl *DistributedLock) Lock(ctx context.Context, menuID valueobjects.MenuID) (ports.UnlockFunc, error) {
	deadline := dl.now().Add(dl.wait)
	retryInterval := 100 * time.Millisecond

	for {
		lockID, err := dl.acquire(ctx, menuID)
		if err == nil {
			stop := dl.keepAlive(menuID, lockID)
			var once sync.Once
			return func() {
				once.Do(func() {
					stop()
					dl.release(menuID, lockID)
				})
			}, nil
		}
		if !pkgerrors.IsConflict(err) {
			return nil, err
		}
		if !dl.now().Before(deadline) {
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("menu %d is being modified by another request", menuID))
		}

		select {
		case <-ctx.Done():
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("menu %d is being modified by another request", menuID)).WithCause(ctx.Err())
		case <-time.After(retryInterval):
			if retryInterval < time.Second {
				retryInterval = time.Duration(float64(retryInterval) * 1.5)
			}
		}
	}
}

func (dl *DistributedLock) acquire(ctx context.Context, menuID valueobjects.MenuID) (string, error) {
	now := dl.now().UTC()
	expiresAt := now.Add(dl.ttl)
	lockID := uuid.NewString()

	item, err := attributevalue.MarshalMap(lockRecord{
		PK:         lockPK(menuID),
		SK:         lockSK,
		LockID:     lockID,
		Owner:      dl.owner,
		AcquiredAt: now.Format(time.RFC3339),
		ExpiresAt:  expiresAt.Format(time.RFC3339),
		TTL:        expiresAt.Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal lock: %w", err)
	}

	_, err = dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(dl.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			dl.logger.Debug("Failed to acquire lock - already held",
				zap.Int64("menuID", menuID.Int64()),
				zap.String("owner", dl.owner),
			)
			return "", pkgerrors.NewConflictError(fmt.Sprintf("lock already held for menu %d", menuID))
		}
		return "", classifyError("AcquireMenuLock", err)
	}

	dl.logger.Debug("Lock acquired",
		zap.Int64("menuID", menuID.Int64()),
		zap.String("lockID", lockID),
		zap.Duration("ttl", dl.ttl),
	)
	return lockID, nil
}

// keepAlive renews the lease until the returned stop func is called or the
// lease is found to belong to someone else. stop waits for the renewer to exit.
func (dl *DistributedLock) keepAlive(menuID valueobjects.MenuID, lockID string) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(dl.renewEvery)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := dl.renew(menuID, lockID); err != nil {
					if pkgerrors.IsConflict(err) {
						dl.logger.Error("Menu lock lost while held",
							zap.Int64("menuID", menuID.Int64()),
							zap.String("lockID", lockID),
						)
						return
					}
					dl.logger.Warn("Failed to renew menu lock",
						zap.Int64("menuID", menuID.Int64()),
						zap.String("lockID", lockID),
						zap.Error(err),
					)
				}
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}
}

// renew pushes the lease expiry forward, provided we still own it
func (dl *DistributedLock) renew(menuID valueobjects.MenuID, lockID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	expiresAt := dl.now().UTC().Add(dl.ttl)
	_, err := dl.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockPK(menuID)},
			"SK": &types.AttributeValueMemberS{Value: lockSK},
		},
		UpdateExpression:    aws.String("SET ExpiresAt = :expiresAt, #ttl = :ttl"),
		ConditionExpression: aws.String("LockID = :lockId AND #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expiresAt": &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
			":ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
			":lockId":    &types.AttributeValueMemberS{Value: lockID},
			":owner":     &types.AttributeValueMemberS{Value: dl.owner},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return pkgerrors.NewConflictError(fmt.Sprintf("lock for menu %d taken over", menuID)).WithCause(err)
		}
		return classifyError("RenewMenuLock", err)
	}

	dl.logger.Debug("Lock renewed",
		zap.Int64("menuID", menuID.Int64()),
		zap.String("lockID", lockID),
	)
	return nil
}

// release runs detached from the request context so a cancelled request
// still frees its lease.
func (dl *DistributedLock) release(menuID valueobjects.MenuID, lockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	_, err := dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockPK(menuID)},
			"SK": &types.AttributeValueMemberS{Value: lockSK},
		},
		ConditionExpression: aws.String("LockID = :lockId AND #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
			":owner":  &types.AttributeValueMemberS{Value: dl.owner},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			dl.logger.Warn("Lock already released or taken over",
				zap.Int64("menuID", menuID.Int64()),
				zap.String("lockID", lockID),
			)
			return
		}
		dl.logger.Error("Failed to release lock",
			zap.Int64("menuID", menuID.Int64()),
			zap.String("lockID", lockID),
			zap.Error(err),
		)
	}
}
