package dynamodb

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "catmenu/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Client is the subset of the DynamoDB API used by the repositories.
// *dynamodb.Client satisfies it; tests substitute a fake.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// TableConfig names the table and the index holding the parent adjacency list
type TableConfig struct {
	TableName       string
	ParentIndexName string
}

// DefaultParentIndexName is the GSI keyed by GSI1PK/GSI1SK
const DefaultParentIndexName = "GSI1"

func (c TableConfig) parentIndex() string {
	if c.ParentIndexName == "" {
		return DefaultParentIndexName
	}
	return c.ParentIndexName
}

// classifyError maps an SDK failure onto an AppError
func classifyError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewCancelledError(operation, err)
	}

	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return pkgerrors.NewDatabaseError(operation, err)
	}

	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		return classifyCancellation(operation, tce)
	}

	switch ae.ErrorCode() {
	case "ConditionalCheckFailedException", "TransactionCanceledException":
		return pkgerrors.NewConflictError(fmt.Sprintf("%s: condition not met", operation)).WithCause(err)
	case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	default:
		return pkgerrors.NewDatabaseError(operation, err).WithCode(ae.ErrorCode())
	}
}

// classifyCancellation maps a cancelled transaction by its cancellation reasons
func classifyCancellation(operation string, tce *types.TransactionCanceledException) error {
	for _, reason := range tce.CancellationReasons {
		switch aws.ToString(reason.Code) {
		case "ThrottlingError", "ProvisionedThroughputExceeded", "RequestLimitExceeded":
			return pkgerrors.NewUnavailableError("dynamodb").WithCause(tce)
		}
	}
	for _, reason := range tce.CancellationReasons {
		switch aws.ToString(reason.Code) {
		case "ConditionalCheckFailed", "TransactionConflict":
			return pkgerrors.NewConflictError(fmt.Sprintf("%s: %s", operation, aws.ToString(reason.Code))).WithCause(tce)
		}
	}
	return pkgerrors.NewDatabaseError(operation, tce).WithCode("TransactionCanceledException")
}

// isConditionFailure reports a failed condition expression. A cancelled
// transaction only counts when a condition is among its reasons.
func isConditionFailure(err error) bool {
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		return failedConditionAt(tce) >= 0
	}
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.ErrorCode() == "ConditionalCheckFailedException"
}

// failedConditionAt returns the index of the first transaction item whose
// condition failed, or -1
func failedConditionAt(tce *types.TransactionCanceledException) int {
	for i, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return i
		}
	}
	return -1
}
