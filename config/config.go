package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/viper"

	"custody/pkg/consts"
)

const configFilePath = "/etc/custody/config.yaml"

var (
	custodyConf *CustodyConfModel
	PathPrefix  string
)

func LoadConfig() (*CustodyConfModel, error) {
	filePath := configFilePath
	if override := os.Getenv("CUSTODY_CONFIG"); override != "" {
		filePath = override
	}

	if err := loadViperConfig(filePath); err != nil {
		return nil, err
	}

	return custodyConf, nil
}

func loadViperConfig(filePath string) error {
	viper.SetConfigFile(filePath)
	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading viper config: %w", err)
	}

	setEnvConf()
	setDefault()

	viper.WatchConfig()

	err = viper.Unmarshal(&custodyConf)
	if err != nil {
		return fmt.Errorf("error loading viper config to struct: %w", err)
	}

	val, err := json.MarshalIndent(redacted(*custodyConf), "", "  ")
	if err == nil {
		fmt.Println(string(val))
	}

	loadAdminUsers()

	// /api/stage/v1
	PathPrefix, err = url.JoinPath(custodyConf.Server.APIPrefix, custodyConf.Mode, custodyConf.Server.APIVersion)
	if err != nil {
		return err
	}

	return nil
}

func redacted(conf CustodyConfModel) CustodyConfModel {
	if conf.DB.Password != "" {
		conf.DB.Password = "***"
	}
	if conf.Events.AmqpURL != "" {
		conf.Events.AmqpURL = "***"
	}
	return conf
}

func setEnvConf() {
	viper.BindEnv("db.username", "CUSTODY_DB_USERNAME")
	viper.BindEnv("db.password", "CUSTODY_DB_PASSWORD")
	viper.BindEnv("events.amqp_url", "CUSTODY_AMQP_URL")
}

func setDefault() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("mode", "stage")
	viper.SetDefault("login_token_expiry", "24h")
	viper.SetDefault("login_max_skew", "5m")
	viper.SetDefault("chain.supported", []string{consts.Algorand})
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.api_prefix", "/api")
	viper.SetDefault("server.api_version", "v1")
	viper.SetDefault("db.keyspace", consts.AppName)
	viper.SetDefault("vault.cancel_budget", consts.DefaultCancelBudget)
	viper.SetDefault("vault.state_cache_ttl", "5m")
	viper.SetDefault("vault.checkpoint_interval", "1m")
	viper.SetDefault("currency.decimals", 6)
	viper.SetDefault("events.exchange", consts.EventsExchange)
	viper.SetDefault("auth.key_path", "/etc/custody/jwk.json")
}

// GetConfig returns env config
func GetConfig() *CustodyConfModel {
	return custodyConf
}

// SetConfig replaces the loaded config, used by tests and tools that do not
// read a config file.
func SetConfig(conf *CustodyConfModel) {
	custodyConf = conf
	loadAdminUsers()
}
