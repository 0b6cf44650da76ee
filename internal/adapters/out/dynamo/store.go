package dynamo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/ports"
	"carservice/internal/pkg/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Filter expressions used by scans.
const (
	filterByUser    = "#user_id = :user_id"
	filterByID      = "contains(#search_key, :query)"
	filterByPending = "#status = :status AND #created_at < :cutoff"

	conditionNew     = "attribute_not_exists(#id)"
	conditionVersion = "#version = :expected"
)

var (
	_ ports.UnitOfWorkFactory = (*Store)(nil)
	_ ports.OrderReader       = (*Store)(nil)
)

// Store implements the order store on a single DynamoDB table.
type Store struct {
	client Client
	table  string
}

func NewStore(client Client, table string) *Store {
	return &Store{client: client, table: table}
}

// Create returns a new unit of work over the table.
func (s *Store) Create() ports.UnitOfWork {
	return &UnitOfWork{store: s}
}

func (s *Store) GetSnapshot(ctx context.Context, id order.ID) (order.Snapshot, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrID: &types.AttributeValueMemberS{Value: id.String()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return order.Snapshot{}, fmt.Errorf("get order %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return order.Snapshot{}, errs.NewObjectNotFoundError("order", id.String())
	}

	var it orderItem
	if err = attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return order.Snapshot{}, err
	}
	return toSnapshot(it)
}

func (s *Store) ListSnapshots(ctx context.Context, filter ports.ListFilter) ([]order.Snapshot, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.table), ConsistentRead: aws.Bool(true)}
	if filter.UserID != "" {
		input.FilterExpression = aws.String(filterByUser)
		input.ExpressionAttributeNames = map[string]string{"#user_id": attrUserID}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: filter.UserID},
		}
	}
	return s.scanSorted(ctx, input)
}

func (s *Store) SearchSnapshots(ctx context.Context, query string) ([]order.Snapshot, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.table), ConsistentRead: aws.Bool(true)}
	if query != "" {
		input.FilterExpression = aws.String(filterByID)
		input.ExpressionAttributeNames = map[string]string{"#search_key": attrSearchKey}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":query": &types.AttributeValueMemberS{Value: strings.ToLower(query)},
		}
	}
	return s.scanSorted(ctx, input)
}

func (s *Store) scanSorted(ctx context.Context, input *dynamodb.ScanInput) ([]order.Snapshot, error) {
	out, err := s.scan(ctx, input)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, order.NewerFirst)
	return out, nil
}

// scan walks every page of input. Filters apply after the read, so a scan costs the
// whole table regardless of how many items match.
func (s *Store) scan(ctx context.Context, input *dynamodb.ScanInput) ([]order.Snapshot, error) {
	out := make([]order.Snapshot, 0)
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}

		var items []orderItem
		if err = attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			snap, convErr := toSnapshot(it)
			if convErr != nil {
				return nil, fmt.Errorf("decode order %s: %w", it.ID, convErr)
			}
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *Store) get(ctx context.Context, id order.ID) (*order.Order, error) {
	snap, err := s.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return order.RestoreOrder(snap)
}

func (s *Store) listPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*order.Order, error) {
	snaps, err := s.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		ConsistentRead:   aws.Bool(true),
		FilterExpression: aws.String(filterByPending),
		ExpressionAttributeNames: map[string]string{
			"#status":     attrStatus,
			"#created_at": attrCreatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: order.Pending.String()},
			":cutoff": &types.AttributeValueMemberS{Value: formatTime(cutoff)},
		},
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(snaps, func(a, b order.Snapshot) int { return order.NewerFirst(b, a) })
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	orders := make([]*order.Order, 0, len(snaps))
	for _, snap := range snaps {
		o, restoreErr := order.RestoreOrder(snap)
		if restoreErr != nil {
			return nil, restoreErr
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// put writes one order, conditioned on it being new or on its stored version.
func (s *Store) put(ctx context.Context, w write) error {
	av, err := attributevalue.MarshalMap(fromSnapshot(w.snapshot))
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}
	if w.isNew {
		input.ConditionExpression = aws.String(conditionNew)
		input.ExpressionAttributeNames = map[string]string{"#id": attrID}
	} else {
		input.ConditionExpression = aws.String(conditionVersion)
		input.ExpressionAttributeNames = map[string]string{"#version": attrVersion}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(w.expectedVersion, 10)},
		}
	}

	_, err = s.client.PutItem(ctx, input)
	var failed *types.ConditionalCheckFailedException
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &failed):
		return fmt.Errorf("put order %s: %w", w.snapshot.ID, err)
	case w.isNew:
		return errs.NewValueIsInvalidErrorWithCause("order id is invalid",
			fmt.Errorf("order %s already exists", w.snapshot.ID))
	default:
		return s.classifyFailedUpdate(ctx, w)
	}
}

// classifyFailedUpdate tells a missing order from a stale version after a failed put.
func (s *Store) classifyFailedUpdate(ctx context.Context, w write) error {
	id, err := order.ParseID(w.snapshot.ID)
	if err != nil {
		return err
	}
	if _, err = s.GetSnapshot(ctx, id); errors.Is(err, errs.ErrObjectNotFound) {
		return err
	}
	return errs.NewConcurrencyConflictError("order", w.snapshot.ID, w.expectedVersion)
}
