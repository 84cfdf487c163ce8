package model

import (
	"time"
)

// 角色类型
const (
	RoleDirector = "director"
	RoleWriter   = "writer"
	RoleActor    = "actor"
)

// Movie 电影模型
// 主键为 identity 包生成的稳定代理 ID，不使用自增
// 可空的数值字段用指针表示（页面缺失字段入库为 NULL，不视为错误）
type Movie struct {
	ID                uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Slug              string    `json:"slug" gorm:"uniqueIndex"`
	SourceURL         string    `json:"source_url"`
	Title             string    `json:"title"`
	Year              *int      `json:"year"`
	ReleaseDate       string    `json:"release_date"`
	RuntimeMinutes    *int      `json:"runtime_minutes"`
	ContentRating     string    `json:"content_rating"`
	Summary           string    `json:"summary"`
	Metascore         *int      `json:"metascore"`          // 影评人综合分 0-100
	UserScore         *float64  `json:"user_score"`         // 用户综合分 0.0-10.0
	CriticReviewCount *int      `json:"critic_review_count"`
	UserRatingCount   *int      `json:"user_rating_count"`
	BoxOffice         *int64    `json:"box_office"`
	ScrapedAt         time.Time `json:"scraped_at"`
}

// Person 人物（导演/编剧/演员）
type Person struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name       string    `json:"name"`
	NaturalKey string    `json:"natural_key" gorm:"uniqueIndex"` // 规范化小写姓名
	ProfileURL string    `json:"profile_url"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// Genre 类型
type Genre struct {
	ID   uint64 `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name string `json:"name" gorm:"uniqueIndex"`
}

// ProductionCompany 制片公司
type ProductionCompany struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name      string    `json:"name" gorm:"uniqueIndex"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Publication 影评媒体
type Publication struct {
	ID   uint64 `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name string `json:"name" gorm:"uniqueIndex"`
	URL  string `json:"url"`
}

// AwardOrg 奖项机构
type AwardOrg struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name      string    `json:"name" gorm:"uniqueIndex"`
	URL       string    `json:"url"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Reviewer 站点用户（用户评论作者）
type Reviewer struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Username   string    `json:"username"`
	NaturalKey string    `json:"natural_key" gorm:"uniqueIndex"` // 规范化小写用户名
	ProfileURL string    `json:"profile_url"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// MovieGenre 电影-类型关联表
type MovieGenre struct {
	MovieID uint64 `json:"movie_id" gorm:"primaryKey;autoIncrement:false"`
	GenreID uint64 `json:"genre_id" gorm:"primaryKey;autoIncrement:false"`
}

// MovieRole 电影-人物角色关联表
// 唯一性约束在 (movie_id, person_id, role_type)，重复插入为空操作
type MovieRole struct {
	MovieID       uint64    `json:"movie_id" gorm:"primaryKey;autoIncrement:false"`
	PersonID      uint64    `json:"person_id" gorm:"primaryKey;autoIncrement:false"`
	RoleType      string    `json:"role_type" gorm:"primaryKey"`
	CharacterName string    `json:"character_name"` // 仅演员
	BillingOrder  *int      `json:"billing_order"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// MovieProductionCompany 电影-制片公司关联表
type MovieProductionCompany struct {
	MovieID   uint64    `json:"movie_id" gorm:"primaryKey;autoIncrement:false"`
	CompanyID uint64    `json:"company_id" gorm:"primaryKey;autoIncrement:false"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// MovieAwardSummary 电影奖项汇总（获奖数/提名数）
type MovieAwardSummary struct {
	ID          uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	MovieID     uint64    `json:"movie_id" gorm:"index"`
	AwardOrgID  uint64    `json:"award_org_id"`
	Wins        int       `json:"wins"`
	Nominations int       `json:"nominations"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// CriticReview 影评人评论
// ID 由 (电影, 媒体, 页内位置, 来源URL) 哈希生成：同一页面槽位重抓且正文变化时
// 会产生新的逻辑评论，而不是更新旧行
type CriticReview struct {
	ID            uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	MovieID       uint64    `json:"movie_id" gorm:"index"`
	PublicationID *uint64   `json:"publication_id"`
	CriticName    string    `json:"critic_name"`
	Score         *int      `json:"score"` // 0-100
	ReviewDate    string    `json:"review_date"`
	Excerpt       string    `json:"excerpt"`
	SourceURL     string    `json:"source_url"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// UserReview 用户评论
type UserReview struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	MovieID    uint64    `json:"movie_id" gorm:"index"`
	ReviewerID *uint64   `json:"reviewer_id"`
	Score      *int      `json:"score"` // 0-10
	ReviewDate string    `json:"review_date"`
	Text       string    `json:"text"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// ScoreSummary 评分分布汇总（好评/中评/差评计数），与电影 1:1，重新抓取时整行覆盖
type ScoreSummary struct {
	MovieID        uint64    `json:"movie_id" gorm:"primaryKey;autoIncrement:false"`
	CriticPositive *int      `json:"critic_positive"`
	CriticMixed    *int      `json:"critic_mixed"`
	CriticNegative *int      `json:"critic_negative"`
	UserPositive   *int      `json:"user_positive"`
	UserMixed      *int      `json:"user_mixed"`
	UserNegative   *int      `json:"user_negative"`
	ScrapedAt      time.Time `json:"scraped_at"`
}
