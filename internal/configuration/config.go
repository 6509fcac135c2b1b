package configuration

import (
	"healthsync/internal/logger"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

type Config struct {
	APIBaseURL     string
	APIAnonKey     string
	TerraDevID     string
	TerraAPIKey    string
	TavusAPIKey    string
	TavusPersonaID string
	TavusReplicaID string
	StripeKey      string
	PlacesAPIKey   string
	PushServerKey  string
	RedisAddress   string
	SnapshotDir    string
	SyncInterval   time.Duration
	LogLevel       logger.Level
	LogToFile      bool
}

type tomlConfig struct {
	APIBaseURL     string `toml:"api_base_url"`
	APIAnonKey     string `toml:"api_anon_key"`
	TerraDevID     string `toml:"terra_dev_id"`
	TerraAPIKey    string `toml:"terra_api_key"`
	TavusAPIKey    string `toml:"tavus_api_key"`
	TavusPersonaID string `toml:"tavus_persona_id"`
	TavusReplicaID string `toml:"tavus_replica_id"`
	StripeKey      string `toml:"stripe_key"`
	PlacesAPIKey   string `toml:"places_api_key"`
	PushServerKey  string `toml:"push_server_key"`
	RedisAddress   string `toml:"redis_address"`
	SnapshotDir    string `toml:"snapshot_dir"`
	SyncInterval   string `toml:"sync_interval"`
	LogLevel       string `toml:"log_level"`
	LogToFile      bool   `toml:"log_to_file"`
}

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	_, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}

	if tc.APIBaseURL == "" {
		return nil, errors.New("api_base_url is not set")
	}
	if tc.APIAnonKey == "" {
		return nil, errors.New("api_anon_key is not set")
	}

	if tc.SnapshotDir == "" {
		tc.SnapshotDir = "."
	}

	if tc.SyncInterval == "" {
		return nil, errors.New("sync_interval is not set")
	}
	syncInterval, err := time.ParseDuration(tc.SyncInterval)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse sync_interval: %s", tc.SyncInterval)
	}
	if syncInterval < 15*time.Second {
		return nil, errors.Errorf("sync_interval too short (%v), minimum interval: 15s", syncInterval)
	}

	if tc.LogLevel == "" {
		tc.LogLevel = "INFO"
	}
	logLevel, err := logger.ParseLevel(tc.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse log_level: %s", tc.LogLevel)
	}

	return &Config{
		APIBaseURL:     tc.APIBaseURL,
		APIAnonKey:     tc.APIAnonKey,
		TerraDevID:     tc.TerraDevID,
		TerraAPIKey:    tc.TerraAPIKey,
		TavusAPIKey:    tc.TavusAPIKey,
		TavusPersonaID: tc.TavusPersonaID,
		TavusReplicaID: tc.TavusReplicaID,
		StripeKey:      tc.StripeKey,
		PlacesAPIKey:   tc.PlacesAPIKey,
		PushServerKey:  tc.PushServerKey,
		RedisAddress:   tc.RedisAddress,
		SnapshotDir:    tc.SnapshotDir,
		SyncInterval:   syncInterval,
		LogLevel:       logLevel,
		LogToFile:      tc.LogToFile,
	}, nil
}
