package service

import (
	"context"
	"log"

	"github.com/Simerblur/online-data-mining/internal/config"
	"github.com/Simerblur/online-data-mining/internal/model"
)

// SpiderStats 站点遍历计数
type SpiderStats struct {
	BrowsePages   int // 抓取成功的浏览页数
	MoviePages    int // 抓取成功的详情页数
	ReviewPages   int // 抓取成功的评论页数
	FailedTargets int // 放弃的目标数（重试耗尽或页面不可用）
}

// SiteSpider 站点遍历器：浏览页 → 电影详情页 → 影评人/用户评论页
// 单个目标失败只记日志并计数，整轮遍历总能跑完并报告结果
type SiteSpider struct {
	cfg       *config.Config
	orch      *FetchOrchestrator
	extractor *MetacriticExtractor
	pipeline  *IngestionPipeline

	seenSlugs map[string]bool // 本轮已处理的电影，浏览页之间去重
	stats     SpiderStats
}

// NewSiteSpider 创建遍历器
func NewSiteSpider(cfg *config.Config, orch *FetchOrchestrator, extractor *MetacriticExtractor, pipeline *IngestionPipeline) *SiteSpider {
	return &SiteSpider{
		cfg:       cfg,
		orch:      orch,
		extractor: extractor,
		pipeline:  pipeline,
		seenSlugs: make(map[string]bool),
	}
}

// Run 执行一轮完整遍历，返回计数
// ctx 取消时在当前目标边界停下，已入库的数据保持不变
func (s *SiteSpider) Run(ctx context.Context) SpiderStats {
	movies := 0

browse:
	for page := 1; page <= s.cfg.MaxBrowsePages; page++ {
		if ctx.Err() != nil {
			log.Printf("[爬虫] 收到停止信号，遍历中止")
			break
		}

		url := s.extractor.BrowseURL(page)
		log.Printf("[爬虫] 抓取浏览页 %d/%d: %s", page, s.cfg.MaxBrowsePages, url)

		p, err := s.orch.Fetch(ctx, Target{URL: url, Kind: "browse"})
		if err != nil {
			log.Printf("[爬虫] 浏览页抓取失败: %v", err)
			s.stats.FailedTargets++
			continue
		}
		s.stats.BrowsePages++

		slugs, err := s.extractor.ExtractBrowseSlugs(p)
		if err != nil {
			log.Printf("[爬虫] 浏览页解析失败 (%s): %v", url, err)
			continue
		}
		log.Printf("[爬虫] 浏览页 %d 发现 %d 部电影", page, len(slugs))

		for _, slug := range slugs {
			if ctx.Err() != nil {
				break browse
			}
			if s.seenSlugs[slug] {
				continue
			}
			s.seenSlugs[slug] = true

			s.crawlMovie(ctx, slug)
			movies++
			if movies >= s.cfg.MaxMovies {
				log.Printf("[爬虫] 达到电影数上限 %d，停止遍历", s.cfg.MaxMovies)
				break browse
			}
		}
	}

	log.Printf("[爬虫] 遍历结束：浏览页 %d，详情页 %d，评论页 %d，失败目标 %d",
		s.stats.BrowsePages, s.stats.MoviePages, s.stats.ReviewPages, s.stats.FailedTargets)
	return s.stats
}

// crawlMovie 抓取单部电影的详情页和评论页并入库
func (s *SiteSpider) crawlMovie(ctx context.Context, slug string) {
	url := s.extractor.MovieURL(slug)
	p, err := s.orch.Fetch(ctx, Target{URL: url, Kind: "movie"})
	if err != nil {
		log.Printf("[爬虫] 详情页抓取失败 (%s): %v", slug, err)
		s.stats.FailedTargets++
		return
	}

	movie, scores, err := s.extractor.ExtractMovie(p, slug)
	if err != nil {
		log.Printf("[爬虫] 详情页解析失败 (%s): %v", slug, err)
		s.stats.FailedTargets++
		return
	}
	s.stats.MoviePages++

	if err := s.pipeline.Ingest(movie); err != nil {
		log.Printf("[爬虫] %v", err)
		return
	}
	log.Printf("[爬虫] 电影入库: %s", movie.Title)

	if err := s.pipeline.Ingest(scores); err != nil {
		log.Printf("[爬虫] %v", err)
	}

	s.crawlReviews(ctx, slug, "critic_reviews")
	s.crawlReviews(ctx, slug, "user_reviews")
}

// crawlReviews 翻评论页直到页数上限、条数上限或空页为止
func (s *SiteSpider) crawlReviews(ctx context.Context, slug, kind string) {
	start := s.reviewCount(kind)

	for page := 0; page < s.cfg.MaxReviewPages; page++ {
		if ctx.Err() != nil {
			return
		}

		var url string
		if kind == "critic_reviews" {
			url = s.extractor.CriticReviewsURL(slug, page)
		} else {
			url = s.extractor.UserReviewsURL(slug, page)
		}

		p, err := s.orch.Fetch(ctx, Target{URL: url, Kind: kind})
		if err != nil {
			log.Printf("[爬虫] 评论页抓取失败 (%s): %v", slug, err)
			s.stats.FailedTargets++
			return
		}

		tokens, err := s.extractor.ExtractTokens(p)
		if err != nil {
			log.Printf("[爬虫] 评论页解析失败 (%s): %v", slug, err)
			return
		}

		var rec model.Record
		if kind == "critic_reviews" {
			rec = &model.CriticReviewPageRecord{Slug: slug, SourceURL: p.URL, Tokens: tokens}
		} else {
			rec = &model.UserReviewPageRecord{Slug: slug, SourceURL: p.URL, Tokens: tokens}
		}

		before := s.reviewCount(kind)
		if err := s.pipeline.Ingest(rec); err != nil {
			log.Printf("[爬虫] %v", err)
			return
		}
		s.stats.ReviewPages++

		total := s.reviewCount(kind)
		// 空页说明已经翻到底，条数够了也不再翻
		if total == before {
			return
		}
		if total-start >= s.cfg.MaxReviewsPerMovie {
			return
		}
	}
}

func (s *SiteSpider) reviewCount(kind string) int {
	st := s.pipeline.Stats()
	if kind == "critic_reviews" {
		return st.CriticReviews
	}
	return st.UserReviews
}
