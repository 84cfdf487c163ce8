package config

import (
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Env     string
	DBPath  string
	Export  string
	BaseURL string

	// 抓取范围限制
	MaxMovies          int
	MaxBrowsePages     int
	MaxReviewPages     int
	MaxReviewsPerMovie int

	// 抓取并发与重试
	FetchConcurrency int
	FetchRetries     int
	CooldownBase     time.Duration
	FetchTimeout     time.Duration
}

// Load 加载配置
func Load() *Config {
	maxMovies, _ := strconv.Atoi(getEnv("MAX_MOVIES", "1000"))
	maxPages, _ := strconv.Atoi(getEnv("MAX_BROWSE_PAGES", "3"))
	maxReviewPages, _ := strconv.Atoi(getEnv("MAX_REVIEW_PAGES", "2"))
	maxReviews, _ := strconv.Atoi(getEnv("MAX_REVIEWS_PER_MOVIE", "100"))
	concurrency, _ := strconv.Atoi(getEnv("FETCH_CONCURRENCY", "2"))
	retries, _ := strconv.Atoi(getEnv("FETCH_RETRIES", "3"))
	cooldownMs, _ := strconv.Atoi(getEnv("COOLDOWN_BASE_MS", "2000"))
	timeoutSec, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "30"))

	// 并发数过大会触发目标站点限流，硬性限制在 1~3
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 3 {
		concurrency = 3
	}

	return &Config{
		Env:                getEnv("APP_ENV", "development"),
		DBPath:             getEnv("DB_PATH", "output/movies.db"),
		Export:             getEnv("EXPORT_DIR", "output"),
		BaseURL:            getEnv("BASE_URL", "https://www.metacritic.com"),
		MaxMovies:          maxMovies,
		MaxBrowsePages:     maxPages,
		MaxReviewPages:     maxReviewPages,
		MaxReviewsPerMovie: maxReviews,
		FetchConcurrency:   concurrency,
		FetchRetries:       retries,
		CooldownBase:       time.Duration(cooldownMs) * time.Millisecond,
		FetchTimeout:       time.Duration(timeoutSec) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
