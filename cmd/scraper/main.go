package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Simerblur/online-data-mining/internal/config"
	"github.com/Simerblur/online-data-mining/internal/repository"
	"github.com/Simerblur/online-data-mining/internal/service"
	"github.com/joho/godotenv"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("创建数据目录失败: %v", err)
		}
	}
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 初始化抓取编排器：HTTP 会话工厂 + 默认错误分类
	orch := service.NewFetchOrchestrator(
		func() (service.Session, error) {
			return service.NewHTTPSession(cfg.FetchTimeout), nil
		},
		service.DefaultClassifier,
		cfg.FetchConcurrency,
		cfg.FetchRetries,
		cfg.CooldownBase,
	)
	defer orch.Close()

	// 初始化抽取器与入库流水线
	extractor := service.NewMetacriticExtractor(cfg.BaseURL)
	pipeline := service.NewIngestionPipeline(repos.Store)
	spider := service.NewSiteSpider(cfg, orch, extractor, pipeline)

	// 收到中断信号时在目标边界停下，已入库的数据保持完整
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("开始抓取 %s (并发 %d, 重试 %d)", cfg.BaseURL, cfg.FetchConcurrency, cfg.FetchRetries)
	spider.Run(ctx)

	// 导出 CSV 镜像
	exporter := service.NewCSVExporter(db, cfg.Export)
	if err := exporter.Export(); err != nil {
		log.Printf("[导出] CSV 导出失败: %v", err)
	}

	// 入库计数
	st := pipeline.Stats()
	log.Printf("入库汇总：电影 %d，评分分布 %d，影评人评论 %d，用户评论 %d，隔离错误 %d",
		st.Movies, st.ScoreSummaries, st.CriticReviews, st.UserReviews, st.EntityErrors)

	// 各表行数
	counts, err := repos.Store.Counts()
	if err != nil {
		log.Fatalf("统计表行数失败: %v", err)
	}
	for _, table := range []string{
		"movie", "person", "genre", "production_company", "publication",
		"award_org", "reviewer", "movie_genre", "movie_role",
		"movie_company", "movie_award",
		"critic_review", "user_review", "score_summary",
	} {
		log.Printf("  %-28s %d", table, counts[table])
	}

	log.Println("抓取完成")
}
