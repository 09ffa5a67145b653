// Package config loads the shipper settings from the Lambda environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variable names understood by the shipper.
const (
	EnvSearchURL       = "LOGS_ELASTICSEARCH_URL"
	EnvSearchUser      = "LOGS_ELASTICSEARCH_USER"
	EnvSearchPassword  = "LOGS_ELASTICSEARCH_PASSWORD"
	EnvSearchTimeout   = "LOGS_ELASTICSEARCH_TIMEOUT"
	EnvSearchInsecure  = "LOGS_ELASTICSEARCH_INSECURE"
	EnvBucket          = "LOGS_S3_BUCKET"
	EnvS3Region        = "LOGS_S3_REGION"
	EnvS3Endpoint      = "LOGS_S3_ENDPOINT"
	EnvS3PathStyle     = "LOGS_S3_USE_PATH_STYLE"
	EnvS3AccessKeyID   = "LOGS_S3_ACCESS_KEY_ID"
	EnvS3SecretKey     = "LOGS_S3_SECRET_ACCESS_KEY"
	EnvFunctionName    = "AWS_LAMBDA_FUNCTION_NAME"
	EnvLogStreamName   = "AWS_LAMBDA_LOG_STREAM_NAME"
	EnvLogLevel        = "LOGS_SHIPPER_LOG_LEVEL"
	EnvLogFormat       = "LOGS_SHIPPER_LOG_FORMAT"
	EnvIndexRetention  = "LOGS_INDEX_RETENTION_DAYS"
	EnvIndexShards     = "LOGS_INDEX_SHARDS"
	EnvIndexReplicas   = "LOGS_INDEX_REPLICAS"
	EnvIndexRefresh    = "LOGS_INDEX_REFRESH_INTERVAL"
	EnvPushgatewayURL  = "LOGS_METRICS_PUSHGATEWAY_URL"
	EnvMetricsJob      = "LOGS_METRICS_JOB"
	bucketARNPrefix    = "arn:aws:s3:::"
	defaultS3Region    = "us-east-1"
	defaultHTTPTimeout = "10s"
)

type Config struct {
	FunctionName  string        `mapstructure:"function_name"`
	LogStreamName string        `mapstructure:"log_stream_name"`
	Search        SearchConfig  `mapstructure:"search"`
	Archive       ArchiveConfig `mapstructure:"archive"`
	Index         IndexConfig   `mapstructure:"index"`
	Logging       LoggingConfig `mapstructure:"logging"`
	Metrics       MetricsConfig `mapstructure:"metrics"`
}

type SearchConfig struct {
	URL      string        `mapstructure:"url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Insecure bool          `mapstructure:"insecure"`
}

type ArchiveConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type IndexConfig struct {
	ShardCount      int    `mapstructure:"shard_count"`
	ReplicaCount    int    `mapstructure:"replica_count"`
	RefreshInterval string `mapstructure:"refresh_interval"`
	RetentionDays   int    `mapstructure:"retention_days"`
}

// MetricsConfig points at a Prometheus pushgateway. An empty URL disables
// pushing.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Enabled reports whether an archival bucket is configured.
func (a ArchiveConfig) Enabled() bool {
	return a.BucketName() != ""
}

// BucketName returns the bucket name, accepting either a plain name or an S3 bucket ARN.
func (a ArchiveConfig) BucketName() string {
	return strings.TrimPrefix(strings.TrimSpace(a.Bucket), bucketARNPrefix)
}

// Load reads the configuration. Environment variables take precedence over
// the optional YAML file at configPath. It is cheap enough to call once per
// invocation.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("search.timeout", defaultHTTPTimeout)
	v.SetDefault("search.insecure", false)
	v.SetDefault("archive.region", defaultS3Region)
	v.SetDefault("index.shard_count", 1)
	v.SetDefault("index.replica_count", 1)
	v.SetDefault("index.refresh_interval", "5s")
	v.SetDefault("index.retention_days", 30)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("metrics.job", "lambda_log_shipper")

	// Bind specific env vars (viper needs explicit bindings for nested keys)
	bindings := map[string][]string{
		"function_name":             {EnvFunctionName},
		"log_stream_name":           {EnvLogStreamName},
		"search.url":                {EnvSearchURL},
		"search.username":           {EnvSearchUser},
		"search.password":           {EnvSearchPassword},
		"search.timeout":            {EnvSearchTimeout},
		"search.insecure":           {EnvSearchInsecure},
		"archive.bucket":            {EnvBucket},
		"archive.region":            {EnvS3Region, "AWS_REGION"},
		"archive.endpoint":          {EnvS3Endpoint},
		"archive.use_path_style":    {EnvS3PathStyle},
		"archive.access_key_id":     {EnvS3AccessKeyID},
		"archive.secret_access_key": {EnvS3SecretKey},
		"index.shard_count":         {EnvIndexShards},
		"index.replica_count":       {EnvIndexReplicas},
		"index.refresh_interval":    {EnvIndexRefresh},
		"index.retention_days":      {EnvIndexRetention},
		"logging.level":             {EnvLogLevel},
		"logging.format":            {EnvLogFormat},
		"metrics.pushgateway_url":   {EnvPushgatewayURL},
		"metrics.job":               {EnvMetricsJob},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// A custom endpoint (LocalStack, MinIO) needs path-style addressing.
	if cfg.Archive.Endpoint != "" && !v.IsSet("archive.use_path_style") {
		cfg.Archive.UsePathStyle = true
	}

	return &cfg, nil
}
