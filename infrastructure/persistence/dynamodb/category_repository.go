package dynamodb

import (
	"context"
	"fmt"

	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"
	pkgerrors "catmenu/pkg/errors"
	"catmenu/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// maxBatchWrite is the BatchWriteItem request limit
const maxBatchWrite = 25

// CategoryRepository reads the product category taxonomy from DynamoDB.
// Categories live under one partition; the parent index lists the children
// of a category sorted by name.
type CategoryRepository struct {
	client  Client
	table   TableConfig
	metrics *observability.Collector
	logger  *zap.Logger
}

// categoryItem represents the DynamoDB item structure for a category
type categoryItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	CategoryID int64  `dynamodbav:"CategoryID"`
	Name       string `dynamodbav:"Name"`
	ParentID   int64  `dynamodbav:"ParentID"`
	Taxonomy   string `dynamodbav:"Taxonomy"`
	Count      int    `dynamodbav:"Count"`
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(client Client, table TableConfig, metrics *observability.Collector, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		client:  client,
		table:   table,
		metrics: metrics,
		logger:  logger,
	}
}

// GetRootCategories implements ports.TaxonomyStore
func (r *CategoryRepository) GetRootCategories(ctx context.Context) ([]*entities.Category, error) {
	categories, err := r.queryChildren(ctx, valueobjects.NoParent)
	r.metrics.RecordStoreOperation("taxonomy", "GetRootCategories", err)
	return categories, err
}

// GetChildren implements ports.TaxonomyStore
func (r *CategoryRepository) GetChildren(ctx context.Context, id valueobjects.CategoryID) ([]*entities.Category, error) {
	categories, err := r.queryChildren(ctx, id)
	r.metrics.RecordStoreOperation("taxonomy", "GetChildren", err)
	return categories, err
}

// GetCategory implements ports.TaxonomyStore
func (r *CategoryRepository) GetCategory(ctx context.Context, id valueobjects.CategoryID) (*entities.Category, error) {
	category, err := r.getCategory(ctx, id)
	r.metrics.RecordStoreOperation("taxonomy", "GetCategory", err)
	return category, err
}

func (r *CategoryRepository) getCategory(ctx context.Context, id valueobjects.CategoryID) (*entities.Category, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: taxonomyPK()},
			"SK": &types.AttributeValueMemberS{Value: categorySK(id)},
		},
	})
	if err != nil {
		return nil, classifyError("GetCategory", err)
	}
	if len(result.Item) == 0 {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("category %d", id))
	}

	var item categoryItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("GetCategory", fmt.Errorf("failed to unmarshal category: %w", err))
	}
	return toCategory(item), nil
}

func (r *CategoryRepository) queryChildren(ctx context.Context, parent valueobjects.CategoryID) ([]*entities.Category, error) {
	keyEx := expression.Key("GSI1PK").Equal(expression.Value(parentPK(parent)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table.TableName),
		IndexName:                 aws.String(r.table.parentIndex()),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}

	categories := make([]*entities.Category, 0)
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, classifyError("QueryChildren", err)
		}

		for _, raw := range result.Items {
			var item categoryItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to parse category", zap.Error(err))
				continue
			}
			categories = append(categories, toCategory(item))
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return categories, nil
}

// SaveCategories writes categories in batches. It is used to seed the taxonomy;
// the menu service itself never writes categories.
func (r *CategoryRepository) SaveCategories(ctx context.Context, categories []*entities.Category) error {
	for start := 0; start < len(categories); start += maxBatchWrite {
		end := start + maxBatchWrite
		if end > len(categories) {
			end = len(categories)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, c := range categories[start:end] {
			av, err := attributevalue.MarshalMap(toCategoryItem(c))
			if err != nil {
				return fmt.Errorf("failed to marshal category %d: %w", c.ID, err)
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
		}

		if err := r.batchWrite(ctx, requests); err != nil {
			return err
		}
	}

	r.logger.Info("Categories saved",
		zap.String("table", r.table.TableName),
		zap.Int("count", len(categories)),
	)
	return nil
}

func (r *CategoryRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.table.TableName: requests}
	for attempt := 0; attempt < 3 && len(pending[r.table.TableName]) > 0; attempt++ {
		result, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return classifyError("BatchWriteCategories", err)
		}
		pending = result.UnprocessedItems
	}
	if left := len(pending[r.table.TableName]); left > 0 {
		return pkgerrors.NewStoreWriteError(fmt.Sprintf("%d categories left unprocessed", left), nil)
	}
	return nil
}

func toCategoryItem(c *entities.Category) categoryItem {
	return categoryItem{
		PK:         taxonomyPK(),
		SK:         categorySK(c.ID),
		GSI1PK:     parentPK(c.ParentID),
		GSI1SK:     siblingSK(c),
		EntityType: entityCategory,
		CategoryID: c.ID.Int64(),
		Name:       c.Name,
		ParentID:   c.ParentID.Int64(),
		Taxonomy:   c.Taxonomy,
		Count:      c.Count,
	}
}

func toCategory(item categoryItem) *entities.Category {
	taxonomy := item.Taxonomy
	if taxonomy == "" {
		taxonomy = entities.ProductCategoryTaxonomy
	}
	return &entities.Category{
		ID:       valueobjects.CategoryID(item.CategoryID),
		Name:     item.Name,
		ParentID: valueobjects.CategoryID(item.ParentID),
		Taxonomy: taxonomy,
		Count:    item.Count,
	}
}
