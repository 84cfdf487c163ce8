package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simerblur/online-data-mining/internal/identity"
	"github.com/Simerblur/online-data-mining/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrEmptyNaturalKey 自然键为空，无法生成实体
var ErrEmptyNaturalKey = errors.New("自然键为空")

// EntityStore 规范化实体库的幂等写入引擎
// 所有写入走 get-or-insert / upsert 语义：重复自然键不报错，返回既有 ID；
// 关联表插入 insert-if-absent，重复调用为空操作。
// 维度实体（人物、类型、媒体等）写过一次后记入 seen 缓存，本次运行内跳过重复写。
type EntityStore struct {
	db   *gorm.DB
	seen *SeenCache

	// 事务内暂存的 seen 标记，提交成功后才合入共享缓存，
	// 回滚时丢弃，避免缓存里出现没落库的行
	pending []pendingMark
	inTx    bool
}

type pendingMark struct {
	table string
	id    uint64
}

// NewEntityStore 创建实体库
func NewEntityStore(db *gorm.DB) *EntityStore {
	return &EntityStore{
		db:   db,
		seen: NewSeenCache(50000),
	}
}

// Transaction 在单个事务里执行一条记录的全部写入
// 记录级别的原子性：要么整体落库，要么整体回滚，不会留下跨表的半条记录
func (s *EntityStore) Transaction(fn func(tx *EntityStore) error) error {
	txStore := &EntityStore{seen: s.seen, inTx: true}

	err := s.db.Transaction(func(g *gorm.DB) error {
		txStore.db = g
		return fn(txStore)
	})
	if err != nil {
		return err
	}

	// 提交成功，合入 seen 标记
	for _, m := range txStore.pending {
		s.seen.Mark(m.table, m.id)
	}
	return nil
}

func (s *EntityStore) mark(table string, id uint64) {
	if s.inTx {
		s.pending = append(s.pending, pendingMark{table: table, id: id})
		return
	}
	s.seen.Mark(table, id)
}

// UpsertMovie 创建或更新电影，返回代理 ID
// 后写覆盖标量字段（last-write-wins），不触碰任何关联行
func (s *EntityStore) UpsertMovie(m *model.Movie) (uint64, error) {
	m.Slug = identity.Normalize(m.Slug)
	if m.Slug == "" {
		return 0, fmt.Errorf("电影缺少 slug: %w", ErrEmptyNaturalKey)
	}
	if m.ID == 0 {
		m.ID = identity.StableID(identity.KindMovie, m.Slug)
	}
	if m.ScrapedAt.IsZero() {
		m.ScrapedAt = time.Now()
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"source_url", "title", "year", "release_date", "runtime_minutes",
			"content_rating", "summary", "metascore", "user_score",
			"critic_review_count", "user_rating_count", "box_office", "scraped_at",
		}),
	}).Create(m).Error
	if err != nil {
		return 0, fmt.Errorf("保存电影失败 (slug: %s): %w", m.Slug, err)
	}
	return m.ID, nil
}

// UpsertPerson 创建人物（已存在则空操作），返回代理 ID
func (s *EntityStore) UpsertPerson(name, profileURL string, at time.Time) (uint64, error) {
	key := identity.Normalize(name)
	if key == "" {
		return 0, fmt.Errorf("人物姓名为空: %w", ErrEmptyNaturalKey)
	}
	id := identity.StableID(identity.KindPerson, key)
	if s.seen.Contains("person", id) {
		return id, nil
	}

	p := &model.Person{
		ID:         id,
		Name:       strings.TrimSpace(name),
		NaturalKey: key,
		ProfileURL: profileURL,
		ScrapedAt:  at,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(p).Error; err != nil {
		return 0, fmt.Errorf("保存人物失败 (%s): %w", name, err)
	}
	s.mark("person", id)
	return id, nil
}

// UpsertGenre 创建类型（惰性：首次引用时建行），返回代理 ID
func (s *EntityStore) UpsertGenre(name string) (uint64, error) {
	key := identity.Normalize(name)
	if key == "" {
		return 0, fmt.Errorf("类型名为空: %w", ErrEmptyNaturalKey)
	}
	id := identity.StableID(identity.KindGenre, key)
	if s.seen.Contains("genre", id) {
		return id, nil
	}

	g := &model.Genre{ID: id, Name: key}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(g).Error; err != nil {
		return 0, fmt.Errorf("保存类型失败 (%s): %w", name, err)
	}
	s.mark("genre", id)
	return id, nil
}

// UpsertCompany 创建制片公司，返回代理 ID
func (s *EntityStore) UpsertCompany(name string, at time.Time) (uint64, error) {
	key := identity.Normalize(name)
	if key == "" {
		return 0, fmt.Errorf("公司名为空: %w", ErrEmptyNaturalKey)
	}
	id := identity.StableID(identity.KindCompany, key)
	if s.seen.Contains("production_company", id) {
		return id, nil
	}

	c := &model.ProductionCompany{ID: id, Name: strings.TrimSpace(name), ScrapedAt: at}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(c).Error; err != nil {
		return 0, fmt.Errorf("保存制片公司失败 (%s): %w", name, err)
	}
	s.mark("production_company", id)
	return id, nil
}

// UpsertPublication 创建影评媒体，返回代理 ID
func (s *EntityStore) UpsertPublication(name, url string) (uint64, error) {
	key := identity.Normalize(name)
	if key == "" {
		return 0, fmt.Errorf("媒体名为空: %w", ErrEmptyNaturalKey)
	}
	id := identity.StableID(identity.KindPublication, key)
	if s.seen.Contains("publication", id) {
		return id, nil
	}

	p := &model.Publication{ID: id, Name: strings.TrimSpace(name), URL: url}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(p).Error; err != nil {
		return 0, fmt.Errorf("保存媒体失败 (%s): %w", name, err)
	}
	s.mark("publication", id)
	return id, nil
}

// UpsertAwardOrg 创建奖项机构，返回代理 ID
func (s *EntityStore) UpsertAwardOrg(name, url string, at time.Time) (uint64, error) {
	key := identity.Normalize(name)
	if key == "" {
		return 0, fmt.Errorf("奖项机构名为空: %w", ErrEmptyNaturalKey)
	}
	id := identity.StableID(identity.KindAwardOrg, key)
	if s.seen.Contains("award_org", id) {
		return id, nil
	}

	a := &model.AwardOrg{ID: id, Name: strings.TrimSpace(name), URL: url, ScrapedAt: at}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(a).Error; err != nil {
		return 0, fmt.Errorf("保存奖项机构失败 (%s): %w", name, err)
	}
	s.mark("award_org", id)
	return id, nil
}

// UpsertReviewer 创建站点用户，返回代理 ID
func (s *EntityStore) UpsertReviewer(username, profileURL string, at time.Time) (uint64, error) {
	key := identity.Normalize(username)
	if key == "" {
		return 0, fmt.Errorf("用户名为空: %w", ErrEmptyNaturalKey)
	}
	id := identity.StableID(identity.KindReviewer, key)
	if s.seen.Contains("reviewer", id) {
		return id, nil
	}

	r := &model.Reviewer{ID: id, Username: strings.TrimSpace(username), NaturalKey: key, ProfileURL: profileURL, ScrapedAt: at}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(r).Error; err != nil {
		return 0, fmt.Errorf("保存用户失败 (%s): %w", username, err)
	}
	s.mark("reviewer", id)
	return id, nil
}

// RoleOpts 角色附加信息
type RoleOpts struct {
	CharacterName string
	BillingOrder  *int
}

// LinkRole 建立电影-人物角色关联，重复插入同一 (电影, 人物, 角色) 为空操作
func (s *EntityStore) LinkRole(movieID, personID uint64, roleType string, opts RoleOpts, at time.Time) error {
	r := &model.MovieRole{
		MovieID:       movieID,
		PersonID:      personID,
		RoleType:      roleType,
		CharacterName: opts.CharacterName,
		BillingOrder:  opts.BillingOrder,
		ScrapedAt:     at,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(r).Error; err != nil {
		return fmt.Errorf("保存角色关联失败 (%d-%d-%s): %w", movieID, personID, roleType, err)
	}
	return nil
}

// LinkGenre 建立电影-类型关联
func (s *EntityStore) LinkGenre(movieID, genreID uint64) error {
	mg := &model.MovieGenre{MovieID: movieID, GenreID: genreID}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(mg).Error; err != nil {
		return fmt.Errorf("保存类型关联失败 (%d-%d): %w", movieID, genreID, err)
	}
	return nil
}

// LinkCompany 建立电影-制片公司关联
func (s *EntityStore) LinkCompany(movieID, companyID uint64, at time.Time) error {
	mc := &model.MovieProductionCompany{MovieID: movieID, CompanyID: companyID, ScrapedAt: at}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(mc).Error; err != nil {
		return fmt.Errorf("保存公司关联失败 (%d-%d): %w", movieID, companyID, err)
	}
	return nil
}

// UpsertAwardSummary 创建或覆盖电影奖项汇总
func (s *EntityStore) UpsertAwardSummary(movieID, awardOrgID uint64, wins, nominations int, at time.Time) error {
	a := &model.MovieAwardSummary{
		ID:          identity.StableIDParts(identity.KindAwardSummary, fmt.Sprint(movieID), fmt.Sprint(awardOrgID)),
		MovieID:     movieID,
		AwardOrgID:  awardOrgID,
		Wins:        wins,
		Nominations: nominations,
		ScrapedAt:   at,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"wins", "nominations", "scraped_at"}),
	}).Create(a).Error
	if err != nil {
		return fmt.Errorf("保存奖项汇总失败 (movie: %d): %w", movieID, err)
	}
	return nil
}

// UpsertCriticReview 写入影评人评论，重复 ID 为空操作
// 评论 ID 按 (电影, 媒体, 页内位置, 来源URL) 哈希生成，运行间稳定但不随内容稳定
func (s *EntityStore) UpsertCriticReview(r *model.CriticReview) error {
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(r).Error; err != nil {
		return fmt.Errorf("保存影评失败 (movie: %d): %w", r.MovieID, err)
	}
	return nil
}

// UpsertUserReview 写入用户评论，重复 ID 为空操作
func (s *EntityStore) UpsertUserReview(r *model.UserReview) error {
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(r).Error; err != nil {
		return fmt.Errorf("保存用户评论失败 (movie: %d): %w", r.MovieID, err)
	}
	return nil
}

// UpsertScoreSummary 创建或覆盖评分分布汇总（与电影 1:1）
func (s *EntityStore) UpsertScoreSummary(sum *model.ScoreSummary) error {
	if sum.ScrapedAt.IsZero() {
		sum.ScrapedAt = time.Now()
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"critic_positive", "critic_mixed", "critic_negative",
			"user_positive", "user_mixed", "user_negative", "scraped_at",
		}),
	}).Create(sum).Error
	if err != nil {
		return fmt.Errorf("保存评分分布失败 (movie: %d): %w", sum.MovieID, err)
	}
	return nil
}

// FindMovieBySlug 按 slug 查找电影
func (s *EntityStore) FindMovieBySlug(slug string) (*model.Movie, error) {
	var m model.Movie
	err := s.db.Where("slug = ?", identity.Normalize(slug)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Counts 统计各表行数，用于运行结束报告和收敛校验
func (s *EntityStore) Counts() (map[string]int64, error) {
	tables := map[string]interface{}{
		"movie":              &model.Movie{},
		"person":             &model.Person{},
		"genre":              &model.Genre{},
		"production_company": &model.ProductionCompany{},
		"publication":        &model.Publication{},
		"award_org":          &model.AwardOrg{},
		"reviewer":           &model.Reviewer{},
		"movie_genre":        &model.MovieGenre{},
		"movie_role":         &model.MovieRole{},
		"movie_company":      &model.MovieProductionCompany{},
		"movie_award":        &model.MovieAwardSummary{},
		"critic_review":      &model.CriticReview{},
		"user_review":        &model.UserReview{},
		"score_summary":      &model.ScoreSummary{},
	}

	counts := make(map[string]int64, len(tables))
	for name, m := range tables {
		var n int64
		if err := s.db.Model(m).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("统计 %s 行数失败: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}
