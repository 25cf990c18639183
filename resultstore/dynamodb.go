package resultstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	o "github.com/pslkit/psl-test-adapter/framework/opt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// Schema of the DynamoDB table: a string partition key holding the test ID.
	tablePartitionKey   = "id"
	recordJSONAttribute = "record"
)

type dynamoDBStore struct {
	dynamodb *dynamodb.Client
	table    string
}

func newDynamoDBStore(ctx context.Context, u *url.URL) (*dynamoDBStore, error) {
	table := u.Host
	if table == "" {
		table = strings.Trim(u.Path, "/")
	}
	if table == "" {
		return nil, errors.New("dynamodb DSN must name a table")
	}
	var loadOptions []func(*config.LoadOptions) error
	if region := u.Query().Get("region"); region != "" {
		loadOptions = append(loadOptions, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("cannot load AWS configuration: %w", err)
	}
	endpoint := u.Query().Get("endpoint")
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &dynamoDBStore{dynamodb: client, table: table}, nil
}

func (d *dynamoDBStore) Put(ctx context.Context, record Record) error {
	data, err := marshalRecord(record)
	if err != nil {
		return err
	}
	_, err = d.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item: map[string]types.AttributeValue{
			tablePartitionKey:   &types.AttributeValueMemberS{Value: record.ID},
			recordJSONAttribute: &types.AttributeValueMemberS{Value: string(data)},
		},
	})
	return err
}

func (d *dynamoDBStore) Get(ctx context.Context, id string) (o.Maybe[Record], error) {
	result, err := d.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			tablePartitionKey: &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil || result == nil || result.Item == nil {
		return o.None[Record](), err
	}
	data, ok := result.Item[recordJSONAttribute].(*types.AttributeValueMemberS)
	if !ok {
		return o.None[Record](), fmt.Errorf("stored result for %s has no %s attribute", id, recordJSONAttribute)
	}
	record, err := unmarshalRecord([]byte(data.Value))
	if err != nil {
		return o.None[Record](), err
	}
	return o.Some(record), nil
}

func (d *dynamoDBStore) Close() error { return nil }
