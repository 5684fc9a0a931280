package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	commonErrors "github.com/altamarket/backoffice/internal/domain/errors"
	"github.com/altamarket/backoffice/internal/domain/sync"
	"github.com/altamarket/backoffice/internal/platform/dynamodb/client"
)

const docKeyPrefix = "DOC#"

// CloudStore implements the sync.CloudStore interface on a single DynamoDB
// table. The tenant-scoped path is the partition key and each document is
// one item under it (SK = DOC#<id>), so one Query lists a collection and
// UpdateItem gives merge-write semantics per document.
type CloudStore struct {
	client client.Client
	table  string
	log    *zap.Logger
}

// NewCloudStore creates a CloudStore over the given table
func NewCloudStore(client client.Client, table string, log *zap.Logger) *CloudStore {
	return &CloudStore{
		client: client,
		table:  table,
		log:    log,
	}
}

// ListDocuments returns every document under a path
func (s *CloudStore) ListDocuments(ctx context.Context, path string) ([]sync.Doc, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(path))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	var docs []sync.Doc
	var startKey map[string]types.AttributeValue
	for {
		result, err := s.client.Query(ctx, &awsdynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, commonErrors.NewInternalError(fmt.Sprintf("failed to list documents under %s", path), err)
		}

		for _, item := range result.Items {
			doc, err := itemToDoc(item)
			if err != nil {
				s.log.Warn("skipping unreadable cloud document", zap.String("path", path), zap.Error(err))
				continue
			}
			docs = append(docs, doc)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return docs, nil
}

// SetDocumentMerge writes a document under a path, merging the given
// top-level fields into any existing item.
func (s *CloudStore) SetDocumentMerge(ctx context.Context, path, id string, data map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	update := expression.UpdateBuilder{}
	for field, value := range data {
		update = update.Set(expression.Name(field), expression.Value(value))
	}
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = s.client.UpdateItem(ctx, &awsdynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       documentKey(path, id),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return commonErrors.NewInternalError(fmt.Sprintf("failed to write document %s under %s", id, path), err)
	}
	return nil
}

// DeleteDocument removes a document under a path
func (s *CloudStore) DeleteDocument(ctx context.Context, path, id string) error {
	_, err := s.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       documentKey(path, id),
	})
	if err != nil {
		return commonErrors.NewInternalError(fmt.Sprintf("failed to delete document %s under %s", id, path), err)
	}
	return nil
}

func documentKey(path, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: path},
		"SK": &types.AttributeValueMemberS{Value: docKeyPrefix + id},
	}
}

// itemToDoc converts a DynamoDB item into a raw sync document
func itemToDoc(item map[string]types.AttributeValue) (sync.Doc, error) {
	var data map[string]interface{}
	if err := attributevalue.UnmarshalMap(item, &data); err != nil {
		return sync.Doc{}, err
	}

	sk, _ := data["SK"].(string)
	id := strings.TrimPrefix(sk, docKeyPrefix)
	if id == "" {
		if recID, ok := data["id"].(string); ok {
			id = recID
		}
	}
	delete(data, "PK")
	delete(data, "SK")

	var updatedAt time.Time
	if raw, ok := data["updatedAt"].(string); ok {
		if at, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			updatedAt = at
		}
	}

	body, err := json.Marshal(data)
	if err != nil {
		return sync.Doc{}, err
	}
	return sync.Doc{ID: id, UpdatedAt: updatedAt, Body: body}, nil
}
