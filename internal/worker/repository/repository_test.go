package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// 资源未初始化（或 DB 初始化半途失败）时 Close 不应崩溃
func TestCloseWithoutResources(t *testing.T) {
	r := &repositoryImpl{logger: zap.NewNop()}
	assert.NoError(t, r.Close())
}

// brokers 为空时 GetMQ 返回无类型 nil，调用方判空才有效
func TestGetMQNilWhenDisabled(t *testing.T) {
	r := &repositoryImpl{logger: zap.NewNop()}
	assert.Nil(t, r.GetMQ())
	assert.True(t, r.GetMQ() == nil)
}
