package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kyuwon-shim-ARL/email-agent/internal/triage/domain"
)

// gormStyleCache implements StyleCache using GORM
type gormStyleCache struct {
	db *gorm.DB
}

// NewGormStyleCache creates a new GORM-based StyleCache
func NewGormStyleCache(db *gorm.DB) StyleCache {
	return &gormStyleCache{db: db}
}

func (r *gormStyleCache) Find(address string) (*domain.SenderStyle, error) {
	var style domain.SenderStyle
	err := r.db.Where("address = ?", address).First(&style).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &style, nil
}

func (r *gormStyleCache) Save(address, styleJSON string) error {
	var style domain.SenderStyle
	err := r.db.Where("address = ?", address).First(&style).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		style = domain.SenderStyle{ID: uuid.New().String(), Address: address}
	}
	style.StyleJSON = styleJSON
	style.LearnedAt = time.Now()
	return r.db.Save(&style).Error
}

func (r *gormStyleCache) Stale(style *domain.SenderStyle, maxAge time.Duration) bool {
	return style == nil || time.Since(style.LearnedAt) > maxAge
}

// gormSummaryCache implements SummaryCache using GORM
type gormSummaryCache struct {
	db *gorm.DB
}

// NewGormSummaryCache creates a new GORM-based SummaryCache
func NewGormSummaryCache(db *gorm.DB) SummaryCache {
	return &gormSummaryCache{db: db}
}

func (r *gormSummaryCache) Find(messageID string) (*domain.MessageSummary, error) {
	var summary domain.MessageSummary
	err := r.db.Where("message_id = ?", messageID).First(&summary).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

func (r *gormSummaryCache) Save(messageID, summary string) error {
	existing, err := r.Find(messageID)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Summary = summary
		return r.db.Save(existing).Error
	}
	return r.db.Create(&domain.MessageSummary{
		ID:        uuid.New().String(),
		MessageID: messageID,
		Summary:   summary,
	}).Error
}

// gormRunLog implements RunLog using GORM
type gormRunLog struct {
	db *gorm.DB
}

// NewGormRunLog creates a new GORM-based RunLog
func NewGormRunLog(db *gorm.DB) RunLog {
	return &gormRunLog{db: db}
}

func (r *gormRunLog) Record(run *domain.RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	return r.db.Create(run).Error
}

func (r *gormRunLog) Recent(limit int) ([]*domain.RunRecord, error) {
	var runs []*domain.RunRecord
	err := r.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
