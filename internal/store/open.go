package store

import (
	"context"
	"fmt"

	"ecss/internal/config"

	logx "ecss/pkg/logx"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/elastic/go-elasticsearch/v8"
)

// Open selects and opens a job store backend from cfg, in precedence
// order: embedded SQLite, then S3, then DynamoDB, then Elasticsearch;
// falling back to an in-memory store if none are configured. Selecting
// more than one backend at once is a configuration error: Open reports it
// (via SelectedBackends) and opens nothing.
func Open(ctx context.Context, cfg *config.StorageConfig, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	selected := cfg.SelectedBackends()
	if len(selected) > 1 {
		return nil, fmt.Errorf("store: multiple backends selected (%v); choose exactly one", selected)
	}

	var (
		st  Store
		err error
	)

	switch {
	case cfg.SQLiteFile != "":
		st, err = OpenSQLite(cfg.SQLiteFile)
	case cfg.S3Bucket != "":
		st, err = openS3(ctx, cfg)
	case cfg.DynamoDBTable != "":
		st, err = openKV(ctx, cfg)
	case cfg.ElasticsearchIndex != "":
		st, err = openES(cfg)
	default:
		log.Warn("no job store backend configured; using in-memory store (jobs will not survive a restart)")
		st = NewMemStore()
	}
	if err != nil {
		return nil, err
	}

	if err := st.Bootstrap(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("store: bootstrap: %w", err)
	}
	return st, nil
}

func openS3(ctx context.Context, cfg *config.StorageConfig) (Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func openKV(ctx context.Context, cfg *config.StorageConfig) (Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg)
	return NewKVStore(client, cfg.DynamoDBTable), nil
}

func openES(cfg *config.StorageConfig) (Store, error) {
	esCfg := elasticsearch.Config{Addresses: cfg.ElasticsearchHosts}
	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("store: create elasticsearch client: %w", err)
	}
	return NewESStore(client, cfg.ElasticsearchIndex), nil
}
