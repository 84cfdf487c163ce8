package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCriticReviewsBasic(t *testing.T) {
	tokens := []string{
		"Jan 5, 2024", "85", "ExampleTimes", "Great film.", "read more",
		"Feb 1, 2024", "40", "OtherPub", "Weak.",
	}

	got := ParseCriticReviews(tokens)
	require.Equal(t, []Review{
		{Date: "Jan 5, 2024", Score: 85, Author: "ExampleTimes", Excerpt: "Great film."},
		{Date: "Feb 1, 2024", Score: 40, Author: "OtherPub", Excerpt: "Weak."},
	}, got)
}

func TestParseEmptyInput(t *testing.T) {
	require.Empty(t, ParseCriticReviews(nil))
	require.Empty(t, ParseCriticReviews([]string{}))
}

func TestParseGarbageNeverErrors(t *testing.T) {
	tokens := []string{"nav", "menu", "", "12345", "read more", "footer"}
	require.Empty(t, ParseCriticReviews(tokens))
}

func TestParseBackToBackReviews(t *testing.T) {
	// 两条评论之间只有日期分隔，第二条不能被吃掉
	tokens := []string{
		"Jan 5, 2024", "85", "TimesA", "First excerpt.",
		"Feb 1, 2024", "70", "TimesB", "Second excerpt.",
	}

	got := ParseCriticReviews(tokens)
	require.Len(t, got, 2)
	require.Equal(t, "First excerpt.", got[0].Excerpt)
	require.Equal(t, "TimesB", got[1].Author)
	require.Equal(t, "Second excerpt.", got[1].Excerpt)
}

func TestParseAbandonsDateWithoutScore(t *testing.T) {
	// 窗口内配不到分数的日期被放弃，扫描继续推进
	tokens := []string{
		"Jan 5, 2024", "a", "b", "c", "d", "e", "f",
		"Feb 1, 2024", "90", "Critic", "Good.",
	}

	got := ParseCriticReviews(tokens)
	require.Len(t, got, 1)
	require.Equal(t, "Feb 1, 2024", got[0].Date)
	require.Equal(t, 90, got[0].Score)
}

func TestParseUserScoreImmediatelyAfterDate(t *testing.T) {
	tokens := []string{"Jan 5, 2024", "8", "moviefan42", "Loved it."}

	got := ParseUserReviews(tokens)
	require.Len(t, got, 1)
	require.Equal(t, 8, got[0].Score)
	require.Equal(t, "moviefan42", got[0].Author)
	require.Equal(t, "Loved it.", got[0].Excerpt)
}

func TestParseUserAbandonsWhenScoreNotAdjacent(t *testing.T) {
	// 用户评论的分数必须紧跟日期；隔着用户名的数字不算分数，
	// 否则用户名被吞掉、正文首 token 被错当成作者
	tokens := []string{"Mar 3, 2024", "somename", "7", "Loved it."}
	require.Empty(t, ParseUserReviews(tokens))

	// 超出 0-10 的紧随数字同样放弃候选
	tokens = []string{"Jan 5, 2024", "85", "8", "moviefan42", "Loved it."}
	require.Empty(t, ParseUserReviews(tokens))

	// 同样的流对影评人窗口扫描依然有效
	got := ParseCriticReviews([]string{"Mar 3, 2024", "somename", "77", "Solid.", "read more"})
	require.Len(t, got, 1)
	require.Equal(t, 77, got[0].Score)
}

func TestParseEndOfStreamTerminatesExcerpt(t *testing.T) {
	// 流在正文中间结束，已收集的正文照常产出
	tokens := []string{"Jan 5, 2024", "60", "SomePub", "Half an", "excerpt"}

	got := ParseCriticReviews(tokens)
	require.Len(t, got, 1)
	require.Equal(t, "Half an excerpt", got[0].Excerpt)
}

func TestParseSectionBoundaryStopsExcerpt(t *testing.T) {
	tokens := []string{
		"Jan 5, 2024", "75", "PubX", "Solid work.", "View All",
		"unrelated", "footer",
	}

	got := ParseCriticReviews(tokens)
	require.Len(t, got, 1)
	require.Equal(t, "Solid work.", got[0].Excerpt)
}

func TestParseMultiTokenExcerpt(t *testing.T) {
	tokens := []string{
		"Mar 12, 2023", "91", "The Daily", "A sweeping,", "ambitious epic.", "report",
	}

	got := ParseCriticReviews(tokens)
	require.Len(t, got, 1)
	require.Equal(t, "A sweeping, ambitious epic.", got[0].Excerpt)
}
