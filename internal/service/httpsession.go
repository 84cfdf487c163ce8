package service

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// HTTPSession 基于 net/http 的默认抓取会话实现
// 模拟浏览器请求头并轮换 User-Agent，降低被目标站点拦截的概率
type HTTPSession struct {
	client     *http.Client
	userAgents []string
}

// NewHTTPSession 创建 HTTP 抓取会话
func NewHTTPSession(timeout time.Duration) *HTTPSession {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSession{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
		},
	}
}

// Fetch 抓取单个页面，返回前已读完并释放响应体
func (s *HTTPSession) Fetch(ctx context.Context, target Target) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", target.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	s.setAntiCrawlHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		// 网络层错误（断连、超时）交给分类器按瞬时失败处理
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// 继续读响应体
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("状态码 %d: %w", resp.StatusCode, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("状态码 %d: %w", resp.StatusCode, ErrRateLimited)
	default:
		return nil, fmt.Errorf("请求返回状态码: %d", resp.StatusCode)
	}

	var reader io.ReadCloser
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("创建gzip读取器失败: %w", err)
		}
		defer reader.Close()
	case "deflate":
		reader = flate.NewReader(resp.Body)
		defer reader.Close()
	default:
		reader = resp.Body
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	return &Page{URL: target.URL, Body: body}, nil
}

// Close 释放会话持有的连接
func (s *HTTPSession) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// setAntiCrawlHeaders 设置反爬虫请求头
func (s *HTTPSession) setAntiCrawlHeaders(req *http.Request) {
	userAgent := s.userAgents[rand.Intn(len(s.userAgents))]
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Referer", "https://www.google.com/")
}
