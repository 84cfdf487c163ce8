package service

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Simerblur/online-data-mining/internal/model"
	"gorm.io/gorm"
)

// CSVExporter 把入库结果镜像成 CSV 文件，方便不碰数据库直接看数据
// 文件按追加方式打开，只在空文件时写表头，多轮运行的结果累积在同一组文件里
type CSVExporter struct {
	db  *gorm.DB
	dir string
}

// NewCSVExporter 创建导出器
func NewCSVExporter(db *gorm.DB, dir string) *CSVExporter {
	return &CSVExporter{db: db, dir: dir}
}

// Export 导出电影表和两张评论表
func (e *CSVExporter) Export() error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("创建导出目录失败 (%s): %w", e.dir, err)
	}

	if err := e.exportMovies(); err != nil {
		return err
	}
	if err := e.exportCriticReviews(); err != nil {
		return err
	}
	if err := e.exportUserReviews(); err != nil {
		return err
	}
	return nil
}

func (e *CSVExporter) exportMovies() error {
	var movies []model.Movie
	if err := e.db.Order("id").Find(&movies).Error; err != nil {
		return fmt.Errorf("读取电影表失败: %w", err)
	}

	header := []string{
		"id", "slug", "title", "year", "release_date", "runtime_minutes",
		"content_rating", "metascore", "user_score",
		"critic_review_count", "user_rating_count", "box_office", "source_url",
	}
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, []string{
			strconv.FormatUint(m.ID, 10),
			m.Slug,
			m.Title,
			intPtrStr(m.Year),
			m.ReleaseDate,
			intPtrStr(m.RuntimeMinutes),
			m.ContentRating,
			intPtrStr(m.Metascore),
			floatPtrStr(m.UserScore),
			intPtrStr(m.CriticReviewCount),
			intPtrStr(m.UserRatingCount),
			int64PtrStr(m.BoxOffice),
			m.SourceURL,
		})
	}
	return e.appendCSV("movies.csv", header, rows)
}

func (e *CSVExporter) exportCriticReviews() error {
	var reviews []model.CriticReview
	if err := e.db.Order("id").Find(&reviews).Error; err != nil {
		return fmt.Errorf("读取影评人评论表失败: %w", err)
	}

	header := []string{"id", "movie_id", "critic_name", "score", "review_date", "excerpt", "source_url"}
	rows := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, []string{
			strconv.FormatUint(r.ID, 10),
			strconv.FormatUint(r.MovieID, 10),
			r.CriticName,
			intPtrStr(r.Score),
			r.ReviewDate,
			r.Excerpt,
			r.SourceURL,
		})
	}
	return e.appendCSV("critic_reviews.csv", header, rows)
}

func (e *CSVExporter) exportUserReviews() error {
	var reviews []model.UserReview
	if err := e.db.Order("id").Find(&reviews).Error; err != nil {
		return fmt.Errorf("读取用户评论表失败: %w", err)
	}

	header := []string{"id", "movie_id", "reviewer_id", "score", "review_date", "text"}
	rows := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, []string{
			strconv.FormatUint(r.ID, 10),
			strconv.FormatUint(r.MovieID, 10),
			uint64PtrStr(r.ReviewerID),
			intPtrStr(r.Score),
			r.ReviewDate,
			r.Text,
		})
	}
	return e.appendCSV("user_reviews.csv", header, rows)
}

// appendCSV 追加写入，空文件先写表头
func (e *CSVExporter) appendCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(e.dir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("打开导出文件失败 (%s): %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("检查导出文件失败 (%s): %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("写入表头失败 (%s): %w", path, err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("写入数据行失败 (%s): %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("刷写导出文件失败 (%s): %w", path, err)
	}

	log.Printf("[导出] %s 写入 %d 行", name, len(rows))
	return nil
}

func intPtrStr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func uint64PtrStr(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}

func int64PtrStr(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func floatPtrStr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
