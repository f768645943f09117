package config

import (
	"os"
	"strconv"
)

type SettlementServiceConfig struct {
	Port        string
	PostgresCfg PostgresConfig
	RabbitMQCfg RabbitMQConfig
	RedisCfg    RedisConfig
	MinioCfg    MinioConfig
	EngineCfg   EngineConfig
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// EngineConfig tunes the oracle simulation and validation rules.
type EngineConfig struct {
	// RefreshIntervalSeconds is the cadence of sensor reading refreshes.
	RefreshIntervalSeconds int
	// VarianceLimit is the maximum trusted reading dispersion, in the
	// hazard's own unit.
	VarianceLimit float64
	// RiskScoreCeiling is the maximum acceptable applicant risk score.
	RiskScoreCeiling float64
	// SimSeed seeds the simulated sensor agents. Fixed seeds give
	// reproducible reading sequences.
	SimSeed int64
	// DefaultBalance is the opening wallet balance for new holders.
	DefaultBalance float64
	// CatalogPath optionally overrides the built-in hazard catalog with a
	// JSON file.
	CatalogPath string
}

func New() *SettlementServiceConfig {
	return &SettlementServiceConfig{
		Port: getEnvOrDefault("PORT", "8086"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "settlement"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9407"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
		},
		EngineCfg: EngineConfig{
			RefreshIntervalSeconds: getEnvIntOrDefault("ORACLE_REFRESH_SECONDS", 5),
			VarianceLimit:          getEnvFloatOrDefault("ORACLE_VARIANCE_LIMIT", 15),
			RiskScoreCeiling:       getEnvFloatOrDefault("RISK_SCORE_CEILING", 80),
			SimSeed:                int64(getEnvIntOrDefault("ORACLE_SIM_SEED", 0)),
			DefaultBalance:         getEnvFloatOrDefault("WALLET_DEFAULT_BALANCE", 2500),
			CatalogPath:            getEnvOrDefault("HAZARD_CATALOG_PATH", ""),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
