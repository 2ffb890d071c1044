package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/GrainArc/DxfSvg/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDatabase 打开SQLite转换记录库并迁移表结构
func InitDatabase(dbPath string) (*gorm.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 自动迁移，创建表结构
	if err := db.AutoMigrate(&models.ConvertRecord{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	DB = db
	return db, nil
}

// GetDB 获取数据库实例，未初始化时为 nil
func GetDB() *gorm.DB {
	return DB
}
