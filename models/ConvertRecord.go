package models

import "gorm.io/datatypes"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ConvertRecord 每个转换文件一条记录
type ConvertRecord struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	TaskID   string         `gorm:"index;not null" json:"task_id"`
	Source   string         `gorm:"not null" json:"source"`
	Output   string         `json:"output"`
	Layers   string         `json:"layers"`
	Labels   datatypes.JSON `json:"labels"`
	Comments int            `json:"comments"`
	Status   string         `gorm:"index" json:"status"`
	Error    string         `json:"error"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ConvertRecord) TableName() string {
	return "convert_records"
}
