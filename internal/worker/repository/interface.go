package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type RedisClient = *redis.Client
type DBClient = *gorm.DB

// MQClient 消息队列写入口，*kafka.Writer 实现之，测试可替换
type MQClient interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Repository interface {
	//DB
	GetDB() DBClient
	GetMainRDB() RedisClient
	GetMQ() MQClient
	Close() error
}
