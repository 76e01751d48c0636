package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Snowflake SnowflakeConfig `mapstructure:"snowflake"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name      string `mapstructure:"name"`
	Version   string `mapstructure:"version"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig HTTP服务配置
type HTTPConfig struct {
	Network string `mapstructure:"network"`
	Addr    string `mapstructure:"addr"`
	Timeout string `mapstructure:"timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
}

// MongoDBConfig MongoDB配置
type MongoDBConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"db_name"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

// SnowflakeConfig 雪花ID配置
type SnowflakeConfig struct {
	MachineID int64 `mapstructure:"machine_id"`
}

// LoadConfig 加载配置，环境变量优先于默认值
func LoadConfig(serviceName string) *Config {
	var defaultHTTPPort string

	// 根据服务名称设置默认端口
	switch serviceName {
	case "group-service":
		defaultHTTPPort = "21001"
	case "reaction-service":
		defaultHTTPPort = "21002"
	case "comment-service":
		defaultHTTPPort = "21003"
	case "post-service":
		defaultHTTPPort = "21004"
	default:
		panic(fmt.Sprintf("未知的服务名称: %s，支持的服务名称: group-service, reaction-service, comment-service, post-service", serviceName))
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", defaultHTTPPort)
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("JWT_SECRET", "food-social")
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DB", serviceName+"DB")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_ID", serviceName+"-group")
	v.SetDefault("SNOWFLAKE_MACHINE_ID", 1)

	return &Config{
		App: AppConfig{
			Name:      serviceName,
			Version:   v.GetString("APP_VERSION"),
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{
				Network: "tcp",
				Addr:    ":" + v.GetString("HTTP_PORT"),
				Timeout: v.GetString("HTTP_TIMEOUT"),
			},
		},
		Database: DatabaseConfig{
			MongoDB: MongoDBConfig{
				URI:    v.GetString("MONGODB_URI"),
				DBName: v.GetString("MONGODB_DB"),
			},
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetStringSlice("KAFKA_BROKERS"),
			GroupID: v.GetString("KAFKA_GROUP_ID"),
		},
		Snowflake: SnowflakeConfig{
			MachineID: v.GetInt64("SNOWFLAKE_MACHINE_ID"),
		},
	}
}
