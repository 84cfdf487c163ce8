package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Simerblur/online-data-mining/internal/model"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *EntityStore {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return NewEntityStore(db)
}

func intp(v int) *int { return &v }

func TestUpsertMovieLastWriteWins(t *testing.T) {
	store := newTestStore(t)

	id1, err := store.UpsertMovie(&model.Movie{Slug: "dune-part-two", Title: "Dune: Part Two", Metascore: intp(70)})
	require.NoError(t, err)

	// 重抓同一部电影，标量字段整体覆盖
	id2, err := store.UpsertMovie(&model.Movie{Slug: "Dune-Part-Two", Title: "Dune: Part Two", Metascore: intp(81)})
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	var count int64
	require.NoError(t, store.db.Model(&model.Movie{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	m, err := store.FindMovieBySlug("dune-part-two")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, 81, *m.Metascore)
}

func TestUpsertPersonIdempotent(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	id1, err := store.UpsertPerson("Denis Villeneuve", "", now)
	require.NoError(t, err)

	// 大小写不同仍是同一个人
	id2, err := store.UpsertPerson("  denis villeneuve ", "", now)
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	var count int64
	require.NoError(t, store.db.Model(&model.Person{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestEmptyNaturalKeyRejected(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpsertPerson("   ", "", time.Now())
	require.ErrorIs(t, err, ErrEmptyNaturalKey)

	_, err = store.UpsertGenre("")
	require.ErrorIs(t, err, ErrEmptyNaturalKey)

	_, err = store.UpsertMovie(&model.Movie{Slug: " "})
	require.ErrorIs(t, err, ErrEmptyNaturalKey)
}

func TestLinkRoleDuplicateIsNoop(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	movieID, err := store.UpsertMovie(&model.Movie{Slug: "heat", Title: "Heat"})
	require.NoError(t, err)
	personID, err := store.UpsertPerson("Al Pacino", "", now)
	require.NoError(t, err)

	require.NoError(t, store.LinkRole(movieID, personID, model.RoleActor, RoleOpts{CharacterName: "Vincent Hanna"}, now))
	require.NoError(t, store.LinkRole(movieID, personID, model.RoleActor, RoleOpts{CharacterName: "Vincent Hanna"}, now))

	var count int64
	require.NoError(t, store.db.Model(&model.MovieRole{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// 同一人另一种角色是新行
	require.NoError(t, store.LinkRole(movieID, personID, model.RoleDirector, RoleOpts{}, now))
	require.NoError(t, store.db.Model(&model.MovieRole{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestSeenCacheColdReplay(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	warm := NewEntityStore(db)
	id1, err := warm.UpsertPerson("Greta Gerwig", "", time.Now())
	require.NoError(t, err)

	// 新 store 的缓存是冷的，重放同样的写入必须得到同样的结果
	cold := NewEntityStore(db)
	id2, err := cold.UpsertPerson("Greta Gerwig", "", time.Now())
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	var count int64
	require.NoError(t, db.Model(&model.Person{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestTransactionRollbackDoesNotMarkSeen(t *testing.T) {
	store := newTestStore(t)
	boom := errors.New("boom")

	err := store.Transaction(func(tx *EntityStore) error {
		_, err := tx.UpsertPerson("Christopher Nolan", "", time.Now())
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	// 回滚后行不存在
	var count int64
	require.NoError(t, store.db.Model(&model.Person{}).Count(&count).Error)
	require.EqualValues(t, 0, count)

	// 缓存没有被事务内的写入污染，重写要真正落库
	_, err = store.UpsertPerson("Christopher Nolan", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.db.Model(&model.Person{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUpsertScoreSummaryOverwrites(t *testing.T) {
	store := newTestStore(t)

	movieID, err := store.UpsertMovie(&model.Movie{Slug: "oppenheimer", Title: "Oppenheimer"})
	require.NoError(t, err)

	require.NoError(t, store.UpsertScoreSummary(&model.ScoreSummary{
		MovieID: movieID, CriticPositive: intp(50), CriticMixed: intp(10), CriticNegative: intp(2),
	}))
	require.NoError(t, store.UpsertScoreSummary(&model.ScoreSummary{
		MovieID: movieID, CriticPositive: intp(55), CriticMixed: intp(11), CriticNegative: intp(2),
	}))

	var sum model.ScoreSummary
	require.NoError(t, store.db.First(&sum, "movie_id = ?", movieID).Error)
	require.Equal(t, 55, *sum.CriticPositive)

	var count int64
	require.NoError(t, store.db.Model(&model.ScoreSummary{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCountsCoversAllTables(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpsertMovie(&model.Movie{Slug: "alien", Title: "Alien"})
	require.NoError(t, err)

	counts, err := store.Counts()
	require.NoError(t, err)
	require.EqualValues(t, 1, counts["movie"])
	require.EqualValues(t, 0, counts["person"])
	require.Len(t, counts, 14)
}
