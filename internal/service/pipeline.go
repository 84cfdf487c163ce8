package service

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/Simerblur/online-data-mining/internal/identity"
	"github.com/Simerblur/online-data-mining/internal/model"
	"github.com/Simerblur/online-data-mining/internal/parser"
	"github.com/Simerblur/online-data-mining/internal/repository"
)

// PipelineStats 入库计数
type PipelineStats struct {
	Movies         int // 入库的电影数
	ScoreSummaries int // 入库的评分分布数
	CriticReviews  int // 入库的影评人评论数
	UserReviews    int // 入库的用户评论数
	EntityErrors   int // 被隔离的子实体错误数（不中断批次）
}

// IngestionPipeline 把抽取层产出的记录路由到实体仓储
// 每条记录一个事务：先解析身份、再按依赖顺序写维度实体、最后写事实行
// 子实体出错只记日志并计数，不拖垮同记录里的其他实体
type IngestionPipeline struct {
	store *repository.EntityStore
	stats PipelineStats

	// 当前记录内被隔离的错误数，事务提交后才计入 stats
	pendingErrors int
}

// NewIngestionPipeline 创建入库流水线
func NewIngestionPipeline(store *repository.EntityStore) *IngestionPipeline {
	return &IngestionPipeline{store: store}
}

// Ingest 路由一条记录
// switch 必须覆盖全部记录种类，漏掉的种类走 default 显式报错而不是静默丢弃
func (p *IngestionPipeline) Ingest(rec model.Record) error {
	switch r := rec.(type) {
	case *model.MovieRecord:
		return p.ingestMovie(r)
	case *model.ScoreSummaryRecord:
		return p.ingestScoreSummary(r)
	case *model.CriticReviewPageRecord:
		return p.ingestCriticPage(r)
	case *model.UserReviewPageRecord:
		return p.ingestUserPage(r)
	default:
		return fmt.Errorf("未知记录类型: %T", rec)
	}
}

// Stats 返回当前计数快照
func (p *IngestionPipeline) Stats() PipelineStats {
	return p.stats
}

func (p *IngestionPipeline) ingestMovie(r *model.MovieRecord) error {
	now := time.Now()

	err := p.store.Transaction(func(tx *repository.EntityStore) error {
		movieID, err := tx.UpsertMovie(&model.Movie{
			Slug:              r.Slug,
			SourceURL:         r.SourceURL,
			Title:             r.Title,
			Year:              r.Year,
			ReleaseDate:       r.ReleaseDate,
			RuntimeMinutes:    r.RuntimeMinutes,
			ContentRating:     r.ContentRating,
			Summary:           r.Summary,
			Metascore:         r.Metascore,
			UserScore:         r.UserScore,
			CriticReviewCount: r.CriticReviewCount,
			UserRatingCount:   r.UserRatingCount,
			BoxOffice:         r.BoxOffice,
			ScrapedAt:         now,
		})
		if err != nil {
			return err
		}

		// 类型
		for _, name := range r.Genres {
			genreID, err := tx.UpsertGenre(name)
			if err != nil {
				p.entityError("类型", r.Slug, err)
				continue
			}
			if err := tx.LinkGenre(movieID, genreID); err != nil {
				p.entityError("类型关联", r.Slug, err)
			}
		}

		// 导演和编剧
		for _, name := range r.Directors {
			p.linkPerson(tx, movieID, r.Slug, name, model.RoleDirector, repository.RoleOpts{}, now)
		}
		for _, name := range r.Writers {
			p.linkPerson(tx, movieID, r.Slug, name, model.RoleWriter, repository.RoleOpts{}, now)
		}

		// 演员表，保留署名顺序
		for _, c := range r.Cast {
			order := c.BillingOrder
			p.linkPerson(tx, movieID, r.Slug, c.Name, model.RoleActor, repository.RoleOpts{
				CharacterName: c.CharacterName,
				BillingOrder:  &order,
			}, now)
		}

		// 制片公司
		for _, name := range r.Companies {
			companyID, err := tx.UpsertCompany(name, now)
			if err != nil {
				p.entityError("制片公司", r.Slug, err)
				continue
			}
			if err := tx.LinkCompany(movieID, companyID, now); err != nil {
				p.entityError("公司关联", r.Slug, err)
			}
		}

		// 奖项汇总
		for _, a := range r.Awards {
			orgID, err := tx.UpsertAwardOrg(a.OrgName, "", now)
			if err != nil {
				p.entityError("奖项机构", r.Slug, err)
				continue
			}
			if err := tx.UpsertAwardSummary(movieID, orgID, a.Wins, a.Nominations, now); err != nil {
				p.entityError("奖项汇总", r.Slug, err)
			}
		}

		return nil
	})
	p.settleEntityErrors(err == nil)
	if err != nil {
		return fmt.Errorf("电影入库失败 (slug: %s): %w", r.Slug, err)
	}

	p.stats.Movies++
	return nil
}

// linkPerson 写人物行和角色关联行，错误被隔离不外传
func (p *IngestionPipeline) linkPerson(tx *repository.EntityStore, movieID uint64, slug, name, roleType string, opts repository.RoleOpts, at time.Time) {
	personID, err := tx.UpsertPerson(name, "", at)
	if err != nil {
		p.entityError("人物", slug, err)
		return
	}
	if err := tx.LinkRole(movieID, personID, roleType, opts, at); err != nil {
		p.entityError("角色关联", slug, err)
	}
}

func (p *IngestionPipeline) ingestScoreSummary(r *model.ScoreSummaryRecord) error {
	movieID := identity.StableID(identity.KindMovie, r.Slug)

	err := p.store.Transaction(func(tx *repository.EntityStore) error {
		return tx.UpsertScoreSummary(&model.ScoreSummary{
			MovieID:        movieID,
			CriticPositive: r.CriticPositive,
			CriticMixed:    r.CriticMixed,
			CriticNegative: r.CriticNegative,
			UserPositive:   r.UserPositive,
			UserMixed:      r.UserMixed,
			UserNegative:   r.UserNegative,
			ScrapedAt:      time.Now(),
		})
	})
	if err != nil {
		return fmt.Errorf("评分分布入库失败 (slug: %s): %w", r.Slug, err)
	}

	p.stats.ScoreSummaries++
	return nil
}

func (p *IngestionPipeline) ingestCriticPage(r *model.CriticReviewPageRecord) error {
	reviews := parser.ParseCriticReviews(r.Tokens)
	if len(reviews) == 0 {
		return nil
	}
	movieID := identity.StableID(identity.KindMovie, r.Slug)
	now := time.Now()
	saved := 0

	err := p.store.Transaction(func(tx *repository.EntityStore) error {
		for i, rv := range reviews {
			// 影评人评论的作者位是媒体名
			var pubID *uint64
			if id, err := tx.UpsertPublication(rv.Author, ""); err != nil {
				p.entityError("影评媒体", r.Slug, err)
			} else {
				pubID = &id
			}

			// 评论身份由页面槽位决定：(电影, 作者, 页内位置, 来源URL)
			reviewID := identity.StableIDParts(identity.KindCriticReview,
				strconv.FormatUint(movieID, 10),
				identity.Normalize(rv.Author),
				strconv.Itoa(i),
				r.SourceURL,
			)

			score := rv.Score
			err := tx.UpsertCriticReview(&model.CriticReview{
				ID:            reviewID,
				MovieID:       movieID,
				PublicationID: pubID,
				CriticName:    rv.Author,
				Score:         &score,
				ReviewDate:    rv.Date,
				Excerpt:       rv.Excerpt,
				SourceURL:     r.SourceURL,
				ScrapedAt:     now,
			})
			if err != nil {
				p.entityError("影评人评论", r.Slug, err)
				continue
			}
			saved++
		}
		return nil
	})
	p.settleEntityErrors(err == nil)
	if err != nil {
		return fmt.Errorf("影评人评论入库失败 (slug: %s): %w", r.Slug, err)
	}

	p.stats.CriticReviews += saved
	return nil
}

func (p *IngestionPipeline) ingestUserPage(r *model.UserReviewPageRecord) error {
	reviews := parser.ParseUserReviews(r.Tokens)
	if len(reviews) == 0 {
		return nil
	}
	movieID := identity.StableID(identity.KindMovie, r.Slug)
	now := time.Now()
	saved := 0

	err := p.store.Transaction(func(tx *repository.EntityStore) error {
		for i, rv := range reviews {
			var reviewerID *uint64
			if id, err := tx.UpsertReviewer(rv.Author, "", now); err != nil {
				p.entityError("评论用户", r.Slug, err)
			} else {
				reviewerID = &id
			}

			reviewID := identity.StableIDParts(identity.KindUserReview,
				strconv.FormatUint(movieID, 10),
				identity.Normalize(rv.Author),
				strconv.Itoa(i),
				r.SourceURL,
			)

			score := rv.Score
			err := tx.UpsertUserReview(&model.UserReview{
				ID:         reviewID,
				MovieID:    movieID,
				ReviewerID: reviewerID,
				Score:      &score,
				ReviewDate: rv.Date,
				Text:       rv.Excerpt,
				ScrapedAt:  now,
			})
			if err != nil {
				p.entityError("用户评论", r.Slug, err)
				continue
			}
			saved++
		}
		return nil
	})
	p.settleEntityErrors(err == nil)
	if err != nil {
		return fmt.Errorf("用户评论入库失败 (slug: %s): %w", r.Slug, err)
	}

	p.stats.UserReviews += saved
	return nil
}

// entityError 子实体级错误：记日志、计数，继续处理同记录的其他实体
func (p *IngestionPipeline) entityError(what, slug string, err error) {
	p.pendingErrors++
	log.Printf("[入库] %s处理失败 (slug: %s): %v", what, slug, err)
}

// settleEntityErrors 事务落定后结算隔离错误计数
// 只有提交成功的记录才把计数并入 stats，回滚的记录不留痕
func (p *IngestionPipeline) settleEntityErrors(committed bool) {
	if committed {
		p.stats.EntityErrors += p.pendingErrors
	}
	p.pendingErrors = 0
}
