package config

// Config is the daemon's effective configuration: environment variables
// (all ECSS_-prefixed) form the base layer; an optional YAML file named by
// ECSS_CONFIG_FILE overlays backend-specific extended parameters on top.
type Config struct {
	// ECSCluster is the target orchestrator cluster name (ECSS_ECS_CLUSTER, required).
	ECSCluster string `json:"ecs_cluster"`
	// StartedBy tags launched tasks (ECSS_NAME). Defaults to "ecs-scheduler".
	StartedBy string `json:"name"`

	Logging LoggingConfig `json:"logging"`

	// Storage selects and configures exactly one job store backend.
	Storage StorageConfig `json:"storage"`

	// HTTP controls the REST surface listener.
	HTTP HTTPConfig `json:"http"`

	// Launch controls task-launch chunking/pacing.
	Launch LaunchConfig `json:"launch"`

	// Pprof controls the optional debug profiling listener.
	Pprof PprofConfig `json:"pprof"`
}

type LoggingConfig struct {
	// Level: DEBUG, INFO, WARNING, ERROR, CRITICAL (ECSS_LOG_LEVEL).
	Level string `json:"level"`
	// Folder, if set, also writes JSON logs to a file under this directory
	// (ECSS_LOG_FOLDER). stdout/stderr always receive logs regardless.
	Folder string `json:"folder"`
}

// StorageConfig configures the job store. At most one backend's selector
// may be set; selecting more than one is a caller error (§4.C precedence).
type StorageConfig struct {
	SQLiteFile string `json:"sqlite_file"` // ECSS_SQLITE_FILE

	S3Bucket string `json:"s3_bucket"` // ECSS_S3_BUCKET
	S3Prefix string `json:"s3_prefix"` // ECSS_S3_PREFIX

	DynamoDBTable string `json:"dynamodb_table"` // ECSS_DYNAMODB_TABLE

	ElasticsearchIndex string   `json:"elasticsearch_index"` // ECSS_ELASTICSEARCH_INDEX
	ElasticsearchHosts []string `json:"elasticsearch_hosts"` // ECSS_ELASTICSEARCH_HOSTS (comma-separated)

	// Extended is a free-form overlay populated from the YAML config file's
	// top-level backend section (keyed by backend name), carrying parameters
	// beyond what the env var table exposes. The store backends do not read
	// it; they are opened from the env-derived fields above.
	Extended map[string]map[string]string `json:"-"`
}

type HTTPConfig struct {
	Addr string `json:"addr"` // default ":8080"
}

type LaunchConfig struct {
	ChunkSize  int `json:"chunk_size"`   // ECSS_LAUNCH_CHUNK_SIZE, default 10
	RatePerSec int `json:"rate_per_sec"` // ECSS_LAUNCH_RATE_PER_SEC, default 5
}

// PprofConfig controls the optional, loopback-by-default debug profiling
// listener. Disabled unless explicitly enabled.
type PprofConfig struct {
	Enabled bool   `json:"enabled"` // ECSS_PPROF_ENABLED
	Addr    string `json:"addr"`    // ECSS_PPROF_ADDR, default "127.0.0.1:6060"
}
