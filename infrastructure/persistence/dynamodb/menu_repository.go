package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// MenuRepository stores navigation menus and their items in DynamoDB.
//
// Creating an item takes three writes: the menu's item counter reserves a
// position (and proves the menu exists), a global counter allocates the item
// id, and a transaction puts the item while checking that its parent item
// exists. A failure after the first write leaves a gap in positions, never a
// dangling item.
type MenuRepository struct {
	client  Client
	table   TableConfig
	metrics *observability.Collector
	logger  *zap.Logger
}

// menuRecord represents the DynamoDB item structure for a menu
type menuRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	MenuID     int64  `dynamodbav:"MenuID"`
	Name       string `dynamodbav:"Name"`
	ItemCount  int    `dynamodbav:"ItemCount"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// menuItemRecord represents the DynamoDB item structure for a menu item
type menuItemRecord struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	ItemID       int64  `dynamodbav:"ItemID"`
	MenuID       int64  `dynamodbav:"MenuID"`
	Title        string `dynamodbav:"Title"`
	ObjectType   string `dynamodbav:"ObjectType"`
	ObjectID     int64  `dynamodbav:"ObjectID"`
	ItemType     string `dynamodbav:"ItemType"`
	ParentItemID int64  `dynamodbav:"ParentItemID"`
	Status       string `dynamodbav:"Status"`
	Position     int    `dynamodbav:"Position"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
}

// NewMenuRepository creates a new MenuRepository
func NewMenuRepository(client Client, table TableConfig, metrics *observability.Collector, logger *zap.Logger) *MenuRepository {
	return &MenuRepository{
		client:  client,
		table:   table,
		metrics: metrics,
		logger:  logger,
	}
}

// CreateMenu registers a menu. Creating a menu that already exists is a conflict.
func (r *MenuRepository) CreateMenu(ctx context.Context, menu entities.Menu) error {
	av, err := attributevalue.MarshalMap(menuRecord{
		PK:         menuPK(menu.ID),
		SK:         metadataSK,
		EntityType: entityMenu,
		MenuID:     menu.ID.Int64(),
		Name:       menu.Name,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal menu: %w", err)
	}

	cond := expression.Name("PK").AttributeNotExists()
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.table.TableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	r.metrics.RecordStoreOperation("menu", "CreateMenu", err)
	if err != nil {
		if isConditionFailure(err) {
			return pkgerrors.NewConflictError(fmt.Sprintf("menu %d already exists", menu.ID)).WithCause(err)
		}
		return classifyError("CreateMenu", err)
	}
	return nil
}

// CreateMenuItem implements ports.MenuStore
func (r *MenuRepository) CreateMenuItem(ctx context.Context, item *entities.MenuItem) (valueobjects.MenuItemID, error) {
	id, err := r.createMenuItem(ctx, item)
	r.metrics.RecordStoreOperation("menu", "CreateMenuItem", err)
	return id, err
}

func (r *MenuRepository) createMenuItem(ctx context.Context, item *entities.MenuItem) (valueobjects.MenuItemID, error) {
	position, err := r.reservePosition(ctx, item.MenuID)
	if err != nil {
		return 0, err
	}

	id, err := r.nextItemID(ctx)
	if err != nil {
		return 0, err
	}

	record := menuItemRecord{
		PK:           menuPK(item.MenuID),
		SK:           menuItemSK(id),
		EntityType:   entityMenuItem,
		ItemID:       id.Int64(),
		MenuID:       item.MenuID.Int64(),
		Title:        item.Title,
		ObjectType:   item.ObjectType,
		ObjectID:     item.ObjectID,
		ItemType:     item.ItemType,
		ParentItemID: item.ParentItemID.Int64(),
		Status:       string(item.Status),
		Position:     position,
		CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal menu item: %w", err)
	}

	tx := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(r.table.TableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	}}
	if !item.ParentItemID.IsTopLevel() {
		tx = append(tx, types.TransactWriteItem{
			ConditionCheck: &types.ConditionCheck{
				TableName: aws.String(r.table.TableName),
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: menuPK(item.MenuID)},
					"SK": &types.AttributeValueMemberS{Value: menuItemSK(item.ParentItemID)},
				},
				ConditionExpression: aws.String("attribute_exists(PK)"),
			},
		})
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: tx}); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			switch failedConditionAt(tce) {
			case 0:
				return 0, pkgerrors.NewStoreWriteError(
					fmt.Sprintf("menu item %d already exists in menu %d", id, item.MenuID), err)
			case 1:
				return 0, pkgerrors.NewStoreWriteError(
					fmt.Sprintf("parent item %d does not exist in menu %d", item.ParentItemID, item.MenuID), err)
			}
		}
		return 0, classifyError("PutMenuItem", err)
	}

	r.logger.Debug("Menu item stored",
		zap.Int64("menuID", item.MenuID.Int64()),
		zap.Int64("itemID", id.Int64()),
		zap.Int("position", position),
	)
	return id, nil
}

// reservePosition bumps the menu's item count, failing when the menu is missing
func (r *MenuRepository) reservePosition(ctx context.Context, menuID valueobjects.MenuID) (int, error) {
	update := expression.Add(expression.Name("ItemCount"), expression.Value(1))
	cond := expression.Name("PK").AttributeExists()
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: menuPK(menuID)},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if isConditionFailure(err) {
			return 0, pkgerrors.NewStoreWriteError(fmt.Sprintf("menu %d does not exist", menuID), err)
		}
		return 0, classifyError("ReserveMenuPosition", err)
	}

	var out struct {
		ItemCount int `dynamodbav:"ItemCount"`
	}
	if err := attributevalue.UnmarshalMap(result.Attributes, &out); err != nil {
		return 0, fmt.Errorf("failed to unmarshal menu item count: %w", err)
	}
	return out.ItemCount, nil
}

// nextItemID allocates an item id from the table-wide counter
func (r *MenuRepository) nextItemID(ctx context.Context) (valueobjects.MenuItemID, error) {
	update := expression.Add(expression.Name("Value"), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: counterPK},
			"SK": &types.AttributeValueMemberS{Value: counterSK},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, classifyError("AllocateMenuItemID", err)
	}

	var out struct {
		Value int64 `dynamodbav:"Value"`
	}
	if err := attributevalue.UnmarshalMap(result.Attributes, &out); err != nil {
		return 0, fmt.Errorf("failed to unmarshal item counter: %w", err)
	}
	if out.Value <= 0 {
		return 0, pkgerrors.NewStoreWriteError("item counter returned no id", nil)
	}
	return valueobjects.MenuItemID(out.Value), nil
}
