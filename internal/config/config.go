package config

import (
	"github.com/spf13/viper"
)

// The service runs in EKS; DB connection variables, AWS settings and queue
// URLs all arrive as environment variables on the pod.

type Config struct {
	DBHost            string `mapstructure:"DB_HOST"`
	DBPort            string `mapstructure:"DB_PORT"`
	DBUser            string `mapstructure:"DB_USER"`
	DBPassword        string `mapstructure:"DB_PASSWORD"`
	DBName            string `mapstructure:"DB_NAME"`
	ServerPort        string `mapstructure:"SERVER_PORT"`
	AWSRegion         string `mapstructure:"AWS_REGION"`
	IngestSQSQueueURL string `mapstructure:"INGEST_SQS_QUEUE_URL"`
	AuditSQSQueueURL  string `mapstructure:"AUDIT_SQS_QUEUE_URL"`
	AlertSQSQueueURL  string `mapstructure:"ALERT_SQS_QUEUE_URL"`
	AWSEndpoint       string `mapstructure:"AWS_ENDPOINT"`
	SKUDAPIURL        string `mapstructure:"SKUD_API_URL"`
	SKUDAPIKey        string `mapstructure:"SKUD_API_KEY"`
	AlertSender       string `mapstructure:"ALERT_SENDER"`
	RebuildWorkers    int    `mapstructure:"REBUILD_WORKERS"`
	IsLocalDev        bool   `mapstructure:"LOCAL_DEV"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "attendance_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AWS_REGION", "us-east-1") // Default region for AWS services
	viper.SetDefault("INGEST_SQS_QUEUE_URL", "http://localstack:4566/000000000000/skud-events-queue")
	viper.SetDefault("AUDIT_SQS_QUEUE_URL", "http://localstack:4566/000000000000/audit-queue")
	viper.SetDefault("ALERT_SQS_QUEUE_URL", "http://localstack:4566/000000000000/alert-queue")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("SKUD_API_URL", "http://localhost:8081")
	viper.SetDefault("SKUD_API_KEY", "")
	viper.SetDefault("ALERT_SENDER", "attendance@hr-service.com")
	viper.SetDefault("REBUILD_WORKERS", 8)
	viper.SetDefault("LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
