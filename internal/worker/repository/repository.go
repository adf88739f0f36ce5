package repository

import (
	"context"
	"strings"
	"time"
	"trench-radar/internal/worker/config"
	"trench-radar/pkg/database"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New 显式构造并注入，不做进程级单例，方便测试替换
func New(cfg config.Config, logger *zap.Logger) Repository {
	r := &repositoryImpl{
		cfg:    cfg,
		logger: logger,
	}
	r.init()
	return r
}

type repositoryImpl struct {
	cfg     config.Config
	logger  *zap.Logger
	db      *gorm.DB
	mainRdb *redis.Client
	mq      *kafka.Writer
}

func (r *repositoryImpl) init() {
	var err error
	r.db, err = database.InitPG(r.cfg.Postgres.DSN)

	if err != nil {
		panic(err)
	}

	// 初始化 Main RDB
	r.mainRdb = redis.NewClient(&redis.Options{
		Addr:     r.cfg.Redis.Address,
		Password: r.cfg.Redis.Password,
		DB:       r.cfg.Redis.DB,
		PoolSize: 20,
	})

	if err := r.mainRdb.Ping(context.Background()).Err(); err != nil {
		r.logger.Warn("failed to connect to redis, continue", zap.Error(err))
	}

	// 初始化 MQ（可选，brokers 为空则跳过）
	if strings.TrimSpace(r.cfg.Kafka.Brokers) != "" {
		brokers := strings.Split(r.cfg.Kafka.Brokers, ",")
		r.mq = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        r.cfg.Kafka.TopicNewToken,
			Balancer:     &kafka.LeastBytes{},
			BatchSize:    100,
			Async:        true,
			RequiredAcks: kafka.RequireNone,
			Compression:  kafka.Snappy,
			MaxAttempts:  5,
			WriteTimeout: 500 * time.Millisecond,
		}
	} else {
		r.logger.Info("kafka brokers empty, skip mq initialization")
	}
}

func (r *repositoryImpl) GetDB() *gorm.DB {
	return r.db
}

func (r *repositoryImpl) GetMainRDB() *redis.Client {
	return r.mainRdb
}

func (r *repositoryImpl) GetMQ() MQClient {
	if r.mq == nil {
		return nil // 避免带类型的 nil 让调用方判空失效
	}
	return r.mq
}

func (r *repositoryImpl) Close() error {
	if r.db != nil {
		if sqlDB, err := r.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if r.mainRdb != nil {
		r.mainRdb.Close()
	}
	if r.mq != nil {
		r.mq.Close()
	}
	return nil
}
