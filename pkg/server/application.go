package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	kratoslog "github.com/go-kratos/kratos/v2/log"

	"github.com/maiphh/food-social/pkg/config"
	"github.com/maiphh/food-social/pkg/database"
	"github.com/maiphh/food-social/pkg/kafka"
	"github.com/maiphh/food-social/pkg/lifecycle"
	"github.com/maiphh/food-social/pkg/logger"
	"github.com/maiphh/food-social/pkg/middleware"
	"github.com/maiphh/food-social/pkg/redis"
	"github.com/maiphh/food-social/pkg/snowflake"
	"github.com/maiphh/food-social/pkg/telemetry"
)

// Application 应用程序框架
type Application struct {
	serviceName    string
	config         *config.Config
	logger         kratoslog.Logger
	originalLogger logger.Logger
	serverManager  *ServerManager
	lifecycle      *lifecycle.LifecycleManager

	// 基础设施组件
	mongoDB       *database.MongoDB
	redisClient   *redis.RedisClient
	kafkaProducer *kafka.Producer

	// 中间件
	authMiddleware    *middleware.AuthMiddleware
	loggingMiddleware *middleware.LoggingMiddleware

	// 注册函数
	httpRouteRegister func(*gin.Engine)
}

// NewApplication 创建应用程序
func NewApplication(serviceName string) *Application {
	// 加载配置
	cfg := config.LoadConfig(serviceName)

	// 初始化日志系统
	if err := logger.Init("info"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	originalLogger := logger.GetLogger()

	// 创建Kratos日志器
	kratosLogger := logger.NewKratosStdLogger(cfg.App.Name, cfg.App.Version)

	// 初始化雪花ID生成器
	if err := snowflake.InitGlobalSnowflake(cfg.Snowflake.MachineID); err != nil {
		panic(fmt.Sprintf("Failed to initialize snowflake: %v", err))
	}

	// 初始化链路追踪
	if err := telemetry.InitGlobal(telemetry.DefaultConfig(serviceName)); err != nil {
		kratosLogger.Log(kratoslog.LevelWarn, "msg", "Failed to initialize telemetry", "error", err)
	}

	// 创建生命周期管理器
	lifecycleManager := lifecycle.NewLifecycleManager(kratosLogger)

	// 创建服务器管理器
	serverManager := NewServerManager(cfg, kratosLogger)

	// 创建中间件
	authMiddleware := middleware.NewAuthMiddleware(kratosLogger, cfg.App.JWTSecret)
	loggingMiddleware := middleware.NewLoggingMiddleware(kratosLogger)

	app := &Application{
		serviceName:       serviceName,
		config:            cfg,
		logger:            kratosLogger,
		originalLogger:    originalLogger,
		serverManager:     serverManager,
		lifecycle:         lifecycleManager,
		authMiddleware:    authMiddleware,
		loggingMiddleware: loggingMiddleware,
	}

	// 初始化基础设施
	app.initInfrastructure()

	return app
}

// initInfrastructure 初始化基础设施组件
func (app *Application) initInfrastructure() {
	// 初始化MongoDB
	mongoDB, err := database.NewMongoDB(app.config.Database.MongoDB.URI, app.config.Database.MongoDB.DBName)
	if err != nil {
		app.logger.Log(kratoslog.LevelFatal, "msg", "Failed to connect to MongoDB", "error", err)
		panic(err)
	}
	app.mongoDB = mongoDB

	// 初始化Redis
	app.redisClient = redis.NewRedisClient(app.config.Redis.Addr, app.config.Redis.Password, app.config.Redis.DB)

	// 初始化Kafka
	kafkaProducer, err := kafka.InitProducer(app.config.Kafka.Brokers)
	if err != nil {
		app.logger.Log(kratoslog.LevelFatal, "msg", "Failed to connect to Kafka", "error", err)
		panic(err)
	}
	app.kafkaProducer = kafkaProducer
}

// EnableHTTP 启用HTTP服务器
func (app *Application) EnableHTTP() HTTPServer {
	httpServer := app.serverManager.EnableHTTP()

	// 添加中间件
	httpServer.RegisterRoutes(func(engine *gin.Engine) {
		engine.Use(app.loggingMiddleware.GinLogging())
		engine.Use(app.loggingMiddleware.GinRecovery())
		engine.Use(app.authMiddleware.GinAuth())
	})

	return httpServer
}

// RegisterHTTPRoutes 注册HTTP路由
func (app *Application) RegisterHTTPRoutes(registerFunc func(*gin.Engine)) {
	app.httpRouteRegister = registerFunc
}

// GetMongoDB 获取MongoDB连接
func (app *Application) GetMongoDB() *database.MongoDB {
	return app.mongoDB
}

// GetRedisClient 获取Redis客户端
func (app *Application) GetRedisClient() *redis.RedisClient {
	return app.redisClient
}

// GetKafkaProducer 获取Kafka生产者
func (app *Application) GetKafkaProducer() *kafka.Producer {
	return app.kafkaProducer
}

// GetLogger 获取日志器
func (app *Application) GetLogger() logger.Logger {
	return app.originalLogger
}

// GetKratosLogger 获取Kratos日志器
func (app *Application) GetKratosLogger() kratoslog.Logger {
	return app.logger
}

// GetConfig 获取配置
func (app *Application) GetConfig() *config.Config {
	return app.config
}

// Run 运行应用程序
func (app *Application) Run() error {
	// 注册生命周期钩子
	app.registerLifecycleHooks()

	// 启动生命周期管理器
	if err := app.lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start lifecycle: %w", err)
	}

	// 等待停止信号
	app.lifecycle.Wait()

	return nil
}

// registerLifecycleHooks 注册生命周期钩子
func (app *Application) registerLifecycleHooks() {
	// 注册HTTP路由
	if app.httpRouteRegister != nil {
		app.serverManager.RegisterHTTPRoutes(app.httpRouteRegister)
	}

	// 服务器启动钩子
	app.lifecycle.AddHook(lifecycle.Hook{
		Name:     "servers",
		Priority: 100,
		OnStart: func(ctx context.Context) error {
			return app.serverManager.StartAll(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return app.serverManager.StopAll(ctx)
		},
	})

	// 基础设施清理钩子
	app.lifecycle.AddHook(lifecycle.Hook{
		Name:     "infrastructure",
		Priority: 300,
		OnStop: func(ctx context.Context) error {
			if app.kafkaProducer != nil {
				if err := app.kafkaProducer.Close(); err != nil {
					app.logger.Log(kratoslog.LevelError, "msg", "Failed to close Kafka producer", "error", err)
				}
			}
			if app.redisClient != nil {
				if err := app.redisClient.Close(); err != nil {
					app.logger.Log(kratoslog.LevelError, "msg", "Failed to close Redis", "error", err)
				}
			}
			if app.mongoDB != nil {
				if err := app.mongoDB.Close(); err != nil {
					app.logger.Log(kratoslog.LevelError, "msg", "Failed to close MongoDB", "error", err)
				}
			}
			if err := telemetry.ShutdownGlobal(ctx); err != nil {
				app.logger.Log(kratoslog.LevelError, "msg", "Failed to shutdown telemetry", "error", err)
			}
			return nil
		},
	})
}
