// Package config loads pkgqa's run configuration the way the
// teacher's CLI does: viper reading a YAML file located via
// go-homedir, decoded with mapstructure, overridable by environment
// variables and CLI flags layered on top.
package config

import (
	homedir "github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/pkgqa/pkgqa/pkgerr"
)

// Config is the full set of options a run can be configured with,
// combining what the CLI exposes directly (spec §6) with settings
// better suited to a persisted file (stable arches, default
// reporter).
type Config struct {
	Repository   string   `mapstructure:"repository"`
	StableArches []string `mapstructure:"stable_arches"`

	// Checks and Disabled are -c/--disable check-selection patterns
	// (spec §4.4/§6), matched against a check's name, not the
	// category/package coordinate Whitelist/Blacklist below restrict.
	Checks    []string `mapstructure:"checks"`
	Disabled  []string `mapstructure:"disabled_checks"`
	Whitelist []string `mapstructure:"whitelist"`
	Blacklist []string `mapstructure:"blacklist"`
	Scope     string   `mapstructure:"scope"`
	Verbosity int      `mapstructure:"verbosity"`
	Reporter  string   `mapstructure:"reporter"`
	Debug     bool     `mapstructure:"debug"`

	// Destination settings for the streaming reporter sinks; only the
	// block matching Reporter needs to be populated.
	HTTPHost      string   `mapstructure:"http_host"`
	KafkaBrokers  []string `mapstructure:"kafka_brokers"`
	KafkaTopic    string   `mapstructure:"kafka_topic"`
	PubSubProject string   `mapstructure:"pubsub_project"`
	PubSubTopic   string   `mapstructure:"pubsub_topic"`
	SQSRegion     string   `mapstructure:"sqs_region"`
	SQSQueueURL   string   `mapstructure:"sqs_queue_url"`
}

// Load reads configuration from cfgFile, or $HOME/.pkgqa.yaml when
// cfgFile is empty. A missing config file is not an error: a run can
// be fully specified by CLI flags and environment variables alone.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".pkgqa")
	}

	v.SetEnvPrefix("PKGQA")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
	}); err != nil {
		return nil, &pkgerr.ConfigurationError{Message: "decoding configuration", Err: err}
	}
	return cfg, nil
}
