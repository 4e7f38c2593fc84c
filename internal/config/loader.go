package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

const envPrefix = "ECSS_"

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substitutePlaceholders resolves {NAME} placeholders against the process
// environment, per §6's external-interfaces table.
func substitutePlaceholders(raw string) string {
	if !strings.Contains(raw, "{") {
		return raw
	}
	return placeholderRe.ReplaceAllStringFunc(raw, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return m
	})
}

func getenv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	return substitutePlaceholders(v), true
}

// FromEnv builds the base config layer from ECSS_-prefixed environment
// variables. ECS_CLUSTER is required; everything else has defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		StartedBy: "ecs-scheduler",
		Logging:   LoggingConfig{Level: "INFO"},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Launch:    LaunchConfig{ChunkSize: 10, RatePerSec: 5},
	}

	cluster, ok := getenv("ECS_CLUSTER")
	if !ok || strings.TrimSpace(cluster) == "" {
		return nil, fmt.Errorf("ECSS_ECS_CLUSTER is required")
	}
	cfg.ECSCluster = cluster

	if v, ok := getenv("NAME"); ok && strings.TrimSpace(v) != "" {
		cfg.StartedBy = v
	}
	if v, ok := getenv("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := getenv("LOG_FOLDER"); ok {
		cfg.Logging.Folder = v
	}

	if v, ok := getenv("SQLITE_FILE"); ok {
		cfg.Storage.SQLiteFile = v
	}
	if v, ok := getenv("S3_BUCKET"); ok {
		cfg.Storage.S3Bucket = v
	}
	if v, ok := getenv("S3_PREFIX"); ok {
		cfg.Storage.S3Prefix = v
	}
	if v, ok := getenv("DYNAMODB_TABLE"); ok {
		cfg.Storage.DynamoDBTable = v
	}
	if v, ok := getenv("ELASTICSEARCH_INDEX"); ok {
		cfg.Storage.ElasticsearchIndex = v
	}
	if v, ok := getenv("ELASTICSEARCH_HOSTS"); ok {
		for _, h := range strings.Split(v, ",") {
			h = strings.TrimSpace(h)
			if h != "" {
				cfg.Storage.ElasticsearchHosts = append(cfg.Storage.ElasticsearchHosts, h)
			}
		}
	}

	if v, ok := getenv("HTTP_ADDR"); ok && strings.TrimSpace(v) != "" {
		cfg.HTTP.Addr = v
	}
	if v, ok := getenv("LAUNCH_CHUNK_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Launch.ChunkSize = n
		}
	}
	if v, ok := getenv("LAUNCH_RATE_PER_SEC"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Launch.RatePerSec = n
		}
	}

	cfg.Pprof.Addr = "127.0.0.1:6060"
	if v, ok := getenv("PPROF_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Pprof.Enabled = b
		}
	}
	if v, ok := getenv("PPROF_ADDR"); ok && strings.TrimSpace(v) != "" {
		cfg.Pprof.Addr = v
	}

	return cfg, nil
}

// SelectedBackends reports which storage backend selectors are set.
// Per §4.C, selecting more than one via config is a caller error.
func (c *StorageConfig) SelectedBackends() []string {
	var sel []string
	if strings.TrimSpace(c.SQLiteFile) != "" {
		sel = append(sel, "sqlite")
	}
	if strings.TrimSpace(c.S3Bucket) != "" {
		sel = append(sel, "s3")
	}
	if strings.TrimSpace(c.DynamoDBTable) != "" {
		sel = append(sel, "dynamodb")
	}
	if strings.TrimSpace(c.ElasticsearchIndex) != "" {
		sel = append(sel, "elasticsearch")
	}
	return sel
}
