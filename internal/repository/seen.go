package repository

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SeenCache 单次运行内的 (表, 键) 已写缓存
// 纯性能优化：命中则跳过重复写入，正确性不依赖它——冷缓存对着已有数据
// 重放同样的输入，落库结果完全一致（所有写入都是幂等 upsert）。
// 缓存随一次运行创建、随运行结束丢弃，不做跨运行共享。
type SeenCache struct {
	storage *lru.Cache[string, struct{}]
}

// NewSeenCache 创建已写缓存，size 是最大条数（如 50000）
func NewSeenCache(size int) *SeenCache {
	// lru.New 是线程安全的
	c, _ := lru.New[string, struct{}](size)
	return &SeenCache{storage: c}
}

func seenKey(table string, id uint64) string {
	return fmt.Sprintf("%s:%d", table, id)
}

// Contains 检查某行是否已在本次运行中写过
func (c *SeenCache) Contains(table string, id uint64) bool {
	_, ok := c.storage.Get(seenKey(table, id))
	return ok
}

// Mark 标记某行已写
func (c *SeenCache) Mark(table string, id uint64) {
	c.storage.Add(seenKey(table, id), struct{}{})
}

// Len 当前缓存条数
func (c *SeenCache) Len() int {
	return c.storage.Len()
}
