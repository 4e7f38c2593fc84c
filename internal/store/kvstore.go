package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ecss/internal/jobs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const kvPartitionKey = "id"
const kvBodyAttr = "body"

// DynamoDBClient is the subset of the AWS DynamoDB SDK client this
// backend calls, narrowed so tests can substitute a fake.
type DynamoDBClient interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// kvStore stores one item per job: partition key "id", attribute "body"
// holding the job document as a JSON string.
type kvStore struct {
	client DynamoDBClient
	table  string
}

// NewKVStore creates a job store backed by a DynamoDB table.
func NewKVStore(client DynamoDBClient, table string) Store {
	return &kvStore{client: client, table: table}
}

func (s *kvStore) Bootstrap(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return fmt.Errorf("store: table %q not reachable: %w", s.table, err)
	}
	return nil
}

func (s *kvStore) LoadAll(ctx context.Context) ([]*jobs.Job, error) {
	var out []*jobs.Job
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("store: scan %q: %w", s.table, err)
		}
		for _, item := range resp.Items {
			j, err := decodeItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, j)
		}
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	return out, nil
}

func (s *kvStore) Get(ctx context.Context, id string) (*jobs.Job, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       map[string]types.AttributeValue{kvPartitionKey: &types.AttributeValueMemberS{Value: id}},
	})
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", id, err)
	}
	if len(resp.Item) == 0 {
		return nil, ErrNotFound
	}
	return decodeItem(resp.Item)
}

func (s *kvStore) Create(ctx context.Context, job *jobs.Job) error {
	if _, err := s.Get(ctx, job.ID); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.put(ctx, job)
}

func (s *kvStore) Update(ctx context.Context, job *jobs.Job) error {
	if _, err := s.Get(ctx, job.ID); err != nil {
		return err
	}
	return s.put(ctx, job)
}

func (s *kvStore) put(ctx context.Context, job *jobs.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			kvPartitionKey: &types.AttributeValueMemberS{Value: job.ID},
			kvBodyAttr:     &types.AttributeValueMemberS{Value: string(body)},
		},
	})
	if err != nil {
		return fmt.Errorf("store: put %q: %w", job.ID, err)
	}
	return nil
}

func (s *kvStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       map[string]types.AttributeValue{kvPartitionKey: &types.AttributeValueMemberS{Value: id}},
	})
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", id, err)
	}
	return nil
}

func (s *kvStore) Capabilities() []Capability { return FullCapabilitySet }

func (s *kvStore) Close() error { return nil }

func decodeItem(item map[string]types.AttributeValue) (*jobs.Job, error) {
	attr, ok := item[kvBodyAttr]
	if !ok {
		return nil, errors.New("store: item missing body attribute")
	}
	s, ok := attr.(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("store: body attribute is not a string")
	}
	var j jobs.Job
	if err := json.Unmarshal([]byte(s.Value), &j); err != nil {
		return nil, fmt.Errorf("store: decode item: %w", err)
	}
	return &j, nil
}
