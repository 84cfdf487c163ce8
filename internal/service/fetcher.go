package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Target 抓取目标
type Target struct {
	URL  string
	Kind string // 页面种类，仅用于日志：browse / movie / critic_reviews / user_reviews
}

// Page 抓取到的页面内容
type Page struct {
	URL  string
	Body []byte
}

// Session 底层页面会话的抽象（HTTP 会话或浏览器会话）
// 实现方必须在 Fetch 返回前释放页面级资源，Close 释放会话本身
type Session interface {
	Fetch(ctx context.Context, target Target) (*Page, error)
	Close() error
}

// SessionFactory 会话工厂。断线重连走完整的销毁+重建，不做半恢复
type SessionFactory func() (Session, error)

// FailureKind 抓取失败分类
type FailureKind int

const (
	// FailureFatal 不可重试（资源不存在、页面结构异常等），立即上抛
	FailureFatal FailureKind = iota
	// FailureDisconnect 瞬时断连/超时，重建会话后立刻重试
	FailureDisconnect
	// FailureCooldown 触发限流，线性退避后重试
	FailureCooldown
)

// Classifier 检查失败并归类
type Classifier func(err error) FailureKind

// FetchOrchestrator 抓取编排器
// 对单次抓取执行 尝试 →（成功 | 可重试失败 | 致命失败）状态机：
// 断连走会话重建后重试，限流按 base*第N次 线性退避后重试，最多 maxAttempts 次；
// 次数耗尽把可重试失败转为致命失败，保留原始原因。
// 同时最多 K 个抓取在途（信号量），同一 URL 的并发抓取合并为一次（singleflight）。
type FetchOrchestrator struct {
	factory      SessionFactory
	classify     Classifier
	maxAttempts  int
	cooldownBase time.Duration

	sem   *semaphore.Weighted
	sf    singleflight.Group
	pages *cache.Cache // 本次运行内的页面缓存，避免重复抓同一 URL

	// 可注入的睡眠函数，测试时替换掉真实延时
	sleep func(time.Duration)

	mu      sync.Mutex
	session Session
}

// NewFetchOrchestrator 创建抓取编排器
// concurrency 为在途抓取上限 K，maxAttempts 为单目标最大尝试次数
func NewFetchOrchestrator(factory SessionFactory, classify Classifier, concurrency, maxAttempts int, cooldownBase time.Duration) *FetchOrchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &FetchOrchestrator{
		factory:      factory,
		classify:     classify,
		maxAttempts:  maxAttempts,
		cooldownBase: cooldownBase,
		sem:          semaphore.NewWeighted(int64(concurrency)),
		pages:        cache.New(30*time.Minute, 10*time.Minute),
		sleep:        time.Sleep,
	}
}

// Fetch 抓取单个目标，重试逻辑全部在内部消化
// 返回错误即代表该目标已经放弃（致命失败或重试耗尽）
func (o *FetchOrchestrator) Fetch(ctx context.Context, target Target) (*Page, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("等待抓取槽位失败: %w", err)
	}
	defer o.sem.Release(1)

	// 同一 URL 的并发请求合并为一次实际抓取
	v, err, _ := o.sf.Do(target.URL, func() (interface{}, error) {
		if cached, found := o.pages.Get(target.URL); found {
			return cached.(*Page), nil
		}
		page, err := o.fetchWithRetry(ctx, target)
		if err != nil {
			return nil, err
		}
		o.pages.Set(target.URL, page, cache.DefaultExpiration)
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Page), nil
}

// fetchWithRetry 有界重试状态机
func (o *FetchOrchestrator) fetchWithRetry(ctx context.Context, target Target) (*Page, error) {
	var lastErr error

	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		sess, err := o.acquireSession()
		if err != nil {
			return nil, fmt.Errorf("创建会话失败: %w", err)
		}

		page, err := sess.Fetch(ctx, target)
		if err == nil {
			return page, nil
		}
		lastErr = err

		switch o.classify(err) {
		case FailureFatal:
			// 致命失败零重试，立即上抛
			return nil, fmt.Errorf("抓取失败 (%s): %w", target.URL, err)

		case FailureDisconnect:
			// 整体重建会话后立刻重试，除重连耗时外不额外等待
			// 最后一次尝试失败后没有下一次，重建没有意义
			if attempt < o.maxAttempts {
				log.Printf("[抓取] 会话断连 (%s) 第 %d/%d 次: %v，重建会话", target.URL, attempt, o.maxAttempts, err)
				o.teardownSession()
			}

		case FailureCooldown:
			// 线性退避：base * 第N次，只在还有下一次尝试时等待
			if attempt < o.maxAttempts {
				wait := o.cooldownBase * time.Duration(attempt)
				log.Printf("[抓取] 触发限流 (%s) 第 %d/%d 次: %v，等待 %v", target.URL, attempt, o.maxAttempts, err, wait)
				o.sleep(wait)
			}
		}
	}

	// 重试耗尽，可重试失败转为致命失败，原始原因保留在错误链里
	return nil, fmt.Errorf("重试 %d 次后放弃目标 (%s): %w", o.maxAttempts, target.URL, lastErr)
}

// acquireSession 取当前会话，没有则新建
func (o *FetchOrchestrator) acquireSession() (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != nil {
		return o.session, nil
	}
	sess, err := o.factory()
	if err != nil {
		return nil, err
	}
	o.session = sess
	return sess, nil
}

// teardownSession 销毁当前会话，下次抓取时重建
func (o *FetchOrchestrator) teardownSession() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != nil {
		if err := o.session.Close(); err != nil {
			log.Printf("[抓取] 关闭会话失败: %v", err)
		}
		o.session = nil
	}
}

// Close 释放编排器持有的会话
func (o *FetchOrchestrator) Close() {
	o.teardownSession()
}

// 抓取失败的哨兵错误，供默认分类器和会话实现共用
var (
	ErrNotFound    = errors.New("目标不存在")
	ErrRateLimited = errors.New("触发限流")
	ErrBadPage     = errors.New("页面内容异常")
)

// DefaultClassifier 默认失败分类器
// 限流 → 退避重试；明确的致命错误 → 不重试；其余（网络断连、超时等）→ 重连重试
func DefaultClassifier(err error) FailureKind {
	switch {
	case errors.Is(err, ErrRateLimited):
		return FailureCooldown
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrBadPage), errors.Is(err, context.Canceled):
		return FailureFatal
	default:
		return FailureDisconnect
	}
}
