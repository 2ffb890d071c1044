package services

import (
	"encoding/json"

	"github.com/GrainArc/DxfSvg/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordService 转换记录读写；db 为 nil 时不记录
type RecordService struct {
	db *gorm.DB
}

func NewRecordService(db *gorm.DB) *RecordService {
	return &RecordService{db: db}
}

func (s *RecordService) Enabled() bool {
	return s != nil && s.db != nil
}

// LabelsJSON 标注集合转为记录字段
func LabelsJSON(labels *models.LabelSet) datatypes.JSON {
	data, err := json.Marshal(labels.All())
	if err != nil || labels.Len() == 0 {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

func (s *RecordService) Save(rec *models.ConvertRecord) error {
	if !s.Enabled() {
		return nil
	}
	return s.db.Create(rec).Error
}

// List 分页获取记录，按 id 倒序
func (s *RecordService) List(page, pageSize int) ([]models.ConvertRecord, int64, error) {
	if !s.Enabled() {
		return nil, 0, nil
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	var records []models.ConvertRecord
	var total int64
	if err := s.db.Model(&models.ConvertRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	if err := s.db.Order("id DESC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ByTask 某次批量任务的全部记录
func (s *RecordService) ByTask(taskID string) ([]models.ConvertRecord, error) {
	if !s.Enabled() {
		return nil, nil
	}
	var records []models.ConvertRecord
	err := s.db.Where("task_id = ?", taskID).Order("id").Find(&records).Error
	return records, err
}
