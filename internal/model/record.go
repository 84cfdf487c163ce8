package model

// Record 抽取层产出的记录，封闭标签联合
// 标记方法是非导出的，联合在编译期封闭：新增记录种类必须在本包声明，
// 同时流水线路由的 switch 会对未知种类显式报错
type Record interface {
	isRecord()
}

// CastEntry 演员条目
type CastEntry struct {
	Name          string
	CharacterName string
	BillingOrder  int
}

// AwardEntry 奖项条目
type AwardEntry struct {
	OrgName     string
	Wins        int
	Nominations int
}

// MovieRecord 电影详情页记录
type MovieRecord struct {
	Slug              string
	SourceURL         string
	Title             string
	Year              *int
	ReleaseDate       string
	RuntimeMinutes    *int
	ContentRating     string
	Summary           string
	Metascore         *int
	UserScore         *float64
	CriticReviewCount *int
	UserRatingCount   *int
	BoxOffice         *int64

	Genres    []string
	Directors []string
	Writers   []string
	Cast      []CastEntry
	Companies []string
	Awards    []AwardEntry
}

// ScoreSummaryRecord 评分分布记录
type ScoreSummaryRecord struct {
	Slug           string
	CriticPositive *int
	CriticMixed    *int
	CriticNegative *int
	UserPositive   *int
	UserMixed      *int
	UserNegative   *int
}

// CriticReviewPageRecord 影评人评论页记录（仅携带有序文本 token 流，交给解析器重建）
type CriticReviewPageRecord struct {
	Slug      string
	SourceURL string
	Tokens    []string
}

// UserReviewPageRecord 用户评论页记录
type UserReviewPageRecord struct {
	Slug      string
	SourceURL string
	Tokens    []string
}

func (MovieRecord) isRecord()            {}
func (ScoreSummaryRecord) isRecord()     {}
func (CriticReviewPageRecord) isRecord() {}
func (UserReviewPageRecord) isRecord()   {}
