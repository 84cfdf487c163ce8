package repository

import (
	"fmt"

	"github.com/Simerblur/online-data-mining/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接并建表
func InitDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	// 单写者模型：入库始终由单个 goroutine 执行，连接数限制为 1
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// 建表
	if err := db.AutoMigrate(
		&model.Movie{},
		&model.Person{},
		&model.Genre{},
		&model.ProductionCompany{},
		&model.Publication{},
		&model.AwardOrg{},
		&model.Reviewer{},
		&model.MovieGenre{},
		&model.MovieRole{},
		&model.MovieProductionCompany{},
		&model.MovieAwardSummary{},
		&model.CriticReview{},
		&model.UserReview{},
		&model.ScoreSummary{},
	); err != nil {
		return nil, fmt.Errorf("建表失败: %w", err)
	}

	return db, nil
}

// Repositories 仓库集合
type Repositories struct {
	DB    *gorm.DB
	Store *EntityStore
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:    db,
		Store: NewEntityStore(db),
	}
}
