// Package config loads the router's configuration surface: YAML defaults
// overlaid with environment variables, extended with the router's own
// surface (topN, maxSwapsPerPath, maxSplits, distributionPercent, ...).
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/clsor/router/internal/domain"
)

type Config struct {
	Server      ServerConfig        `yaml:"server"`
	Redis       RedisConfig         `yaml:"redis"`
	Ethereum    EthereumConfig      `yaml:"ethereum"`
	BaseTokens  []string            `yaml:"base_tokens"`
	Router      domain.RouterConfig `yaml:"router"`
}

type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EthereumConfig struct {
	RPCURL       string `yaml:"rpc_url"`
	ChainID      int64  `yaml:"chain_id"`
	TokenListURI string `yaml:"token_list_uri"`
}

var AppConfig *Config

// loadConfigFromFile loads default configuration from a YAML file.
func loadConfigFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("config: no YAML file at %s, using env vars and defaults only", path)
			return nil
		}
		return err
	}
	if err = yaml.Unmarshal(data, config); err != nil {
		return err
	}
	log.Printf("config: loaded defaults from %s", path)
	return nil
}

func Init() error {
	AppConfig = &Config{Router: domain.DefaultRouterConfig()}

	if err := loadConfigFromFile("config/config.yaml", AppConfig); err != nil {
		log.Printf("config: failed to load config.yaml: %v, using defaults", err)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file found, using environment variables")
	}

	AppConfig.Server.Port = getEnv("SERVER_PORT", AppConfig.Server.Port, "8080")
	AppConfig.Server.ReadTimeout = getEnvAsInt("SERVER_READ_TIMEOUT", AppConfig.Server.ReadTimeout, 15)
	AppConfig.Server.WriteTimeout = getEnvAsInt("SERVER_WRITE_TIMEOUT", AppConfig.Server.WriteTimeout, 15)

	AppConfig.Redis.Addr = getEnv("REDIS_ADDR", AppConfig.Redis.Addr, "localhost:6379")
	AppConfig.Redis.Password = getEnv("REDIS_PASSWORD", AppConfig.Redis.Password, "")
	AppConfig.Redis.DB = getEnvAsInt("REDIS_DB", AppConfig.Redis.DB, 0)

	AppConfig.Ethereum.RPCURL = getEnv("ETH_RPC_URL", AppConfig.Ethereum.RPCURL, "wss://mainnet.infura.io/ws/v3/YOUR-PROJECT-ID")
	AppConfig.Ethereum.ChainID = getEnvAsInt64("ETH_CHAIN_ID", AppConfig.Ethereum.ChainID, 1)
	AppConfig.Ethereum.TokenListURI = getEnv("TOKEN_LIST_URI", AppConfig.Ethereum.TokenListURI, "")

	defaultBaseTokens := []string{
		"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", // WETH
		"0xdac17f958d2ee523a2206206994597c13d831ec7", // USDT
		"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
		"0x6b175474e89094c44da98b954eedeac495271d0f", // DAI
	}
	AppConfig.BaseTokens = getEnvAsSlice("BASE_TOKENS", ",", AppConfig.BaseTokens, defaultBaseTokens)

	AppConfig.Router.TopN = getEnvAsInt("ROUTER_TOP_N", AppConfig.Router.TopN, AppConfig.Router.TopN)
	AppConfig.Router.TopNTokenInOut = getEnvAsInt("ROUTER_TOP_N_TOKEN_IN_OUT", AppConfig.Router.TopNTokenInOut, AppConfig.Router.TopNTokenInOut)
	AppConfig.Router.TopNSecondHop = getEnvAsInt("ROUTER_TOP_N_SECOND_HOP", AppConfig.Router.TopNSecondHop, AppConfig.Router.TopNSecondHop)
	AppConfig.Router.MaxSwapsPerPath = getEnvAsInt("ROUTER_MAX_SWAPS_PER_PATH", AppConfig.Router.MaxSwapsPerPath, AppConfig.Router.MaxSwapsPerPath)
	AppConfig.Router.MaxSplits = getEnvAsInt("ROUTER_MAX_SPLITS", AppConfig.Router.MaxSplits, AppConfig.Router.MaxSplits)
	AppConfig.Router.DistributionPercent = getEnvAsInt("ROUTER_DISTRIBUTION_PERCENT", AppConfig.Router.DistributionPercent, AppConfig.Router.DistributionPercent)
	AppConfig.Router.MulticallChunkSize = getEnvAsInt("ROUTER_MULTICALL_CHUNK_SIZE", AppConfig.Router.MulticallChunkSize, AppConfig.Router.MulticallChunkSize)

	if err := AppConfig.Router.Validate(); err != nil {
		return err
	}

	return nil
}

// getEnv returns env value if set, otherwise yamlValue if not empty, otherwise fallback.
func getEnv(key string, yamlValue string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if yamlValue != "" {
		return yamlValue
	}
	return fallback
}

// getEnvAsInt returns env int if set, otherwise yamlValue if non-zero, otherwise fallback.
func getEnvAsInt(key string, yamlValue int, fallback int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	if yamlValue != 0 {
		return yamlValue
	}
	return fallback
}

// getEnvAsInt64 returns env int64 if set, otherwise yamlValue if non-zero, otherwise fallback.
func getEnvAsInt64(key string, yamlValue int64, fallback int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	if yamlValue != 0 {
		return yamlValue
	}
	return fallback
}

// getEnvAsSlice returns env slice if set, otherwise yamlValue if non-empty, otherwise fallback.
func getEnvAsSlice(key, separator string, yamlValue []string, fallback []string) []string {
	valueStr := os.Getenv(key)
	if valueStr != "" {
		return strings.Split(valueStr, separator)
	}
	if len(yamlValue) > 0 {
		return yamlValue
	}
	return fallback
}
