package service

import (
	"path/filepath"
	"testing"

	"github.com/Simerblur/online-data-mining/internal/model"
	"github.com/Simerblur/online-data-mining/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T) (*IngestionPipeline, *repository.EntityStore) {
	t.Helper()
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store := repository.NewEntityStore(db)
	return NewIngestionPipeline(store), store
}

func sampleMovieRecord() *model.MovieRecord {
	year := 2024
	metascore := 81
	return &model.MovieRecord{
		Slug:      "dune-part-two",
		SourceURL: "https://www.metacritic.com/movie/dune-part-two/",
		Title:     "Dune: Part Two",
		Year:      &year,
		Metascore: &metascore,
		Genres:    []string{"Sci-Fi", "Adventure"},
		Directors: []string{"Denis Villeneuve"},
		Writers:   []string{"Denis Villeneuve", "Jon Spaihts"},
		Cast: []model.CastEntry{
			{Name: "Timothée Chalamet", CharacterName: "Paul Atreides", BillingOrder: 1},
			{Name: "Zendaya", CharacterName: "Chani", BillingOrder: 2},
		},
		Companies: []string{"Legendary Pictures"},
		Awards:    []model.AwardEntry{{OrgName: "Oscars", Wins: 2, Nominations: 5}},
	}
}

func TestPipelineIngestMovie(t *testing.T) {
	p, store := newTestPipeline(t)

	require.NoError(t, p.Ingest(sampleMovieRecord()))

	counts, err := store.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 1, counts["movie"])
	require.EqualValues(t, 2, counts["genre"])
	// 维伦纽夫身兼导演编剧，人物表只有一行
	require.EqualValues(t, 4, counts["person"])
	// 1 导演 + 2 编剧 + 2 演员 = 5 个角色
	require.EqualValues(t, 5, counts["movie_role"])
	require.EqualValues(t, 1, counts["production_company"])
	require.EqualValues(t, 1, counts["award_org"])
	require.EqualValues(t, 1, counts["movie_award"])
	require.Equal(t, 1, p.Stats().Movies)
	require.Equal(t, 0, p.Stats().EntityErrors)
}

func TestPipelineConvergence(t *testing.T) {
	p, store := newTestPipeline(t)

	require.NoError(t, p.Ingest(sampleMovieRecord()))
	first, err := store.Counts()
	require.NoError(t, err)

	// 重放同一条记录，各表行数不变
	require.NoError(t, p.Ingest(sampleMovieRecord()))
	second, err := store.Counts()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPipelinePartialFailureIsolation(t *testing.T) {
	p, store := newTestPipeline(t)

	rec := sampleMovieRecord()
	// 混入一个名字为空的导演，单个实体失败不拖垮同记录的其他实体
	rec.Directors = []string{"  ", "Denis Villeneuve"}

	require.NoError(t, p.Ingest(rec))
	require.Equal(t, 1, p.Stats().EntityErrors)

	counts, err := store.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 1, counts["movie"])
	require.EqualValues(t, 4, counts["person"])
}

func TestPipelineCriticReviewPage(t *testing.T) {
	p, store := newTestPipeline(t)
	require.NoError(t, p.Ingest(sampleMovieRecord()))

	page := &model.CriticReviewPageRecord{
		Slug:      "dune-part-two",
		SourceURL: "https://www.metacritic.com/movie/dune-part-two/critic-reviews/",
		Tokens: []string{
			"Jan 5, 2024", "85", "ExampleTimes", "Great film.", "read more",
			"Feb 1, 2024", "40", "OtherPub", "Weak.",
		},
	}
	require.NoError(t, p.Ingest(page))

	counts, err := store.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 2, counts["critic_review"])
	require.EqualValues(t, 2, counts["publication"])
	require.Equal(t, 2, p.Stats().CriticReviews)

	// 重抓同一页不产生新行
	require.NoError(t, p.Ingest(page))
	counts, err = store.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 2, counts["critic_review"])
	require.EqualValues(t, 2, counts["publication"])
}

func TestPipelineUserReviewPage(t *testing.T) {
	p, store := newTestPipeline(t)
	require.NoError(t, p.Ingest(sampleMovieRecord()))

	page := &model.UserReviewPageRecord{
		Slug:      "dune-part-two",
		SourceURL: "https://www.metacritic.com/movie/dune-part-two/user-reviews/",
		Tokens:    []string{"Mar 3, 2024", "9", "moviefan42", "Stunning visuals.", "report"},
	}
	require.NoError(t, p.Ingest(page))

	counts, err := store.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 1, counts["user_review"])
	require.EqualValues(t, 1, counts["reviewer"])
}

func TestPipelineScoreSummary(t *testing.T) {
	p, store := newTestPipeline(t)
	require.NoError(t, p.Ingest(sampleMovieRecord()))

	pos, mixed, neg := 50, 10, 2
	require.NoError(t, p.Ingest(&model.ScoreSummaryRecord{
		Slug:           "dune-part-two",
		CriticPositive: &pos,
		CriticMixed:    &mixed,
		CriticNegative: &neg,
	}))

	counts, err := store.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 1, counts["score_summary"])
}

func TestPipelineEntityErrorsSettlePerRecord(t *testing.T) {
	p, _ := newTestPipeline(t)

	// 两个坏实体的记录提交后计数为 2
	rec := sampleMovieRecord()
	rec.Directors = []string{" ", "Denis Villeneuve"}
	rec.Genres = []string{"", "Sci-Fi"}
	require.NoError(t, p.Ingest(rec))
	require.Equal(t, 2, p.Stats().EntityErrors)

	// 干净记录不把上一条的残留计进来
	require.NoError(t, p.Ingest(sampleMovieRecord()))
	require.Equal(t, 2, p.Stats().EntityErrors)

	// 整条失败的记录（缺 slug）不改动计数
	bad := sampleMovieRecord()
	bad.Slug = "  "
	require.Error(t, p.Ingest(bad))
	require.Equal(t, 2, p.Stats().EntityErrors)
}

func TestPipelineRejectsUnknownRecordShape(t *testing.T) {
	p, _ := newTestPipeline(t)

	// 记录必须以指针传入，其他形态走 default 显式报错而不是静默丢弃
	err := p.Ingest(model.MovieRecord{Slug: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "未知记录类型")
}
