package config

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"Shopify/taxi-parquet-loader/dataset"
	"Shopify/taxi-parquet-loader/load"
	"Shopify/taxi-parquet-loader/storage"
)

type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	BatchSize   int64             `yaml:"batch_size"`
}

type SourceConfig struct {
	storage.BucketConfig `yaml:",inline"`
	// Path of the parquet file inside the bucket.
	Path string `yaml:"path"`
	// ChunkSize in bytes of concurrent ranged reads. Zero downloads the file as a single stream.
	ChunkSize int `yaml:"chunk_size"`
}

type DestinationConfig struct {
	// Project is detected from the credentials when empty.
	Project         string `yaml:"project"`
	Table           string `yaml:"table"`
	Location        string `yaml:"location"`
	CredentialsFile string `yaml:"credentials_file"`
	// StagingBucket switches load jobs from inline uploads to gs:// staged objects.
	StagingBucket string        `yaml:"staging_bucket"`
	StagingPrefix string        `yaml:"staging_prefix"`
	StagingMaxAge time.Duration `yaml:"staging_max_age"`
}

func Default() Config {
	return Config{
		Source: SourceConfig{
			BucketConfig: storage.BucketConfig{
				Type:   storage.GCS,
				Bucket: "nyc-taxi-data-nyc-taxi-pipeline",
			},
			Path: "raw/yellow_tripdata_2023-01.parquet",
		},
		Destination: DestinationConfig{
			Table:         "nyc_taxi_pipeline.taxi_trips",
			StagingPrefix: "staging",
			StagingMaxAge: 24 * time.Hour,
		},
		BatchSize: dataset.DefaultBatchSize,
	}
}

// Load reads a YAML file on top of the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		conf := Default()
		return conf, conf.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}
	conf, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "parse %s", path)
	}
	return conf, nil
}

func Parse(data []byte) (Config, error) {
	conf := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&conf); err != nil && err != io.EOF {
		return Config{}, err
	}
	return conf, conf.Validate()
}

func (c Config) Validate() error {
	switch storage.Provider(strings.ToUpper(string(c.Source.Type))) {
	case storage.GCS, storage.S3, storage.FILESYSTEM:
	default:
		return errors.Errorf("unsupported source type %q", c.Source.Type)
	}
	if c.Source.Bucket == "" {
		return errors.New("source bucket is required")
	}
	if c.Source.Path == "" {
		return errors.New("source path is required")
	}
	if c.Source.ChunkSize < 0 {
		return errors.Errorf("chunk size must not be negative, got %d", c.Source.ChunkSize)
	}
	if _, err := load.ParseTableRef(c.Destination.Table); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.Destination.StagingBucket != "" && c.Destination.StagingMaxAge <= 0 {
		return errors.New("staging max age must be positive")
	}
	return nil
}

// TableRef resolves the destination table, filling in the configured project.
func (c Config) TableRef() (load.TableRef, error) {
	ref, err := load.ParseTableRef(c.Destination.Table)
	if err != nil {
		return load.TableRef{}, err
	}
	if ref.Project == "" {
		ref.Project = c.Destination.Project
	}
	return ref, nil
}
