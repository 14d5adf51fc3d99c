package config

import (
	"encoding/json"
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/Shopify/ejson"
	"github.com/caarlos0/env/v6"
	"github.com/ghodss/yaml"
	"k8s.io/klog"
)

const (
	DefaultBaseURL         = "https://api.hpc.tools/v1/public/"
	DefaultV2BaseURL       = "https://api.hpc.tools/v2/public/"
	DefaultTimeoutSeconds  = 60
	DefaultStartYear       = 2010
	DefaultUpdateFrequency = "@daily"
	DefaultOutputFolder    = "./output"
	DefaultTable           = "requirements_funding"
	DefaultBatchSize       = 1000
	DefaultMeasurement     = "requirements_funding"
	DefaultDatabase        = "fts"

	ejsonKeyEnv = "IMPORTERS_EJSON_SECRET_KEY"
	ejsonKeyDir = "/opt/ejson/keys"
)

var config Config
var secrets Secrets

func ReadConfig(configEnvVar, configFile, secretsFile string) error {
	_, err := readConfig(configEnvVar, configFile)
	if err != nil {
		return err
	}

	_, err = readSecrets(secretsFile)
	if err != nil {
		return err
	}
	return nil
}

func CurrentConfig() *Config {
	return &config
}

func CurrentSecrets() *Secrets {
	return &secrets
}

func CurrentFTSConfig() *FTSConfig {
	return &config.FTS
}

func CurrentSQLConfig() *SQLConfig {
	return &config.SQL
}

func CurrentInfluxConfig() *InfluxConfig {
	return &config.Influx
}

func CurrentSqlSecrets() *SqlSecrets {
	return &secrets.SQL
}

func CurrentInfluxSecrets() *InfluxSecrets {
	return &secrets.Influx
}

func readConfig(envName, filename string) (*Config, error) {
	var raw []byte
	var err error

	rawEnv := os.Getenv(envName)
	if rawEnv != "" {
		klog.Infof("Reading config from environment variable %s\n", envName)
		raw = []byte(rawEnv)
	} else {
		raw, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	config = Config{}
	err = yaml.Unmarshal(raw, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(c *Config) {
	if c.UpdateFrequency == "" {
		c.UpdateFrequency = DefaultUpdateFrequency
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.FTS.BaseURL == "" {
		c.FTS.BaseURL = DefaultBaseURL
	}
	if c.FTS.V2BaseURL == "" {
		c.FTS.V2BaseURL = DefaultV2BaseURL
	}
	if c.FTS.TimeoutSeconds <= 0 {
		c.FTS.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.FTS.StartYear == 0 {
		c.FTS.StartYear = DefaultStartYear
	}
	if c.Output.Folder == "" {
		c.Output.Folder = DefaultOutputFolder
	}
	if c.SQL.Database == "" {
		c.SQL.Database = DefaultDatabase
	}
	if c.SQL.Table == "" {
		c.SQL.Table = DefaultTable
	}
	if c.SQL.BatchSize <= 0 {
		c.SQL.BatchSize = DefaultBatchSize
	}
	if c.Influx.Database == "" {
		c.Influx.Database = DefaultDatabase
	}
	if c.Influx.Measurement == "" {
		c.Influx.Measurement = DefaultMeasurement
	}
}

func readSecrets(filename string) (*Secrets, error) {
	ejsonSecrets, ejsonErr := readEjsonSecrets(filename)

	envSecrets, envErr := readEnvSecrets()

	if ejsonErr == nil && envErr == nil {
		err := mergo.Merge(envSecrets, *ejsonSecrets)
		if err != nil {
			return nil, fmt.Errorf("failed to merge secrets: %w", err)
		}
		secrets = *envSecrets
	} else if ejsonErr != nil && envErr == nil {
		klog.Warningf("Error parsing ejson secrets, using environment only: %v\n", ejsonErr)
		secrets = *envSecrets
	} else if ejsonErr == nil && envErr != nil {
		klog.Warningf("Error parsing env secrets, using ejson only: %v\n", envErr)
		secrets = *ejsonSecrets
	} else {
		return nil, fmt.Errorf("failed to parse secrets. ejson error: %v. env error: %v", ejsonErr, envErr)
	}

	return &secrets, nil
}

func readEjsonSecrets(filename string) (*Secrets, error) {
	ejsonSecrets := Secrets{}
	ejsonKeyFile := os.Getenv(ejsonKeyEnv)
	ejsonKey := []byte{}
	var err error

	if ejsonKeyFile != "" {
		ejsonKey, err = os.ReadFile(ejsonKeyFile)
		if err != nil {
			return nil, err
		}
	}
	raw, err := ejson.DecryptFile(filename, ejsonKeyDir, string(ejsonKey))
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(raw, &ejsonSecrets)
	return &ejsonSecrets, err
}

func readEnvSecrets() (*Secrets, error) {
	envSecrets := Secrets{}
	err := env.Parse(&envSecrets)
	return &envSecrets, err
}
