package ledger

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"roast-pipeline/types"
)

// Queue entry statuses
const (
	StatusPending  = "PENDING"
	StatusUploaded = "UPLOADED"
	StatusFailed   = "FAILED"
)

// QueueEntry is one rendered video waiting for (or past) publication
type QueueEntry struct {
	ID            uint   `gorm:"primaryKey"`
	FilePath      string
	StreamerName  string
	Status        string `gorm:"default:PENDING;index"`
	ScheduledTime *time.Time
	UploadedAt    *time.Time
	YouTubeID     string
	Views         int    `gorm:"default:0"`
	HashtagSet    string `gorm:"default:default"`
	CreatedAt     time.Time
}

// CreatorHistory records when a creator was last used, per platform
type CreatorHistory struct {
	ID          uint   `gorm:"primaryKey"`
	Platform    string `gorm:"index"`
	CreatorID   string `gorm:"index"`
	CreatorName string
	LastUsedAt  *time.Time
}

// ClipHistory records every clip ever consumed; clips are never reused
type ClipHistory struct {
	ID        uint   `gorm:"primaryKey"`
	Platform  string `gorm:"index"`
	ClipID    string `gorm:"index"`
	ClipURL   string
	CreatorID string
	UsedAt    *time.Time
}

// Store is the persistent queue and dedup/history ledger
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite ledger and migrates its schema
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	if err := db.AutoMigrate(&QueueEntry{}, &CreatorHistory{}, &ClipHistory{}); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &Store{db: db}, nil
}

// Enqueue adds a rendered video to the pending queue
func (s *Store) Enqueue(path, streamer string) (uint, error) {
	entry := QueueEntry{FilePath: path, StreamerName: streamer, Status: StatusPending}
	if err := s.db.Create(&entry).Error; err != nil {
		return 0, fmt.Errorf("enqueue %s: %w", path, err)
	}
	log.Printf("[ledger] Queued video for %s (id %d)", streamer, entry.ID)
	return entry.ID, nil
}

// NextPending returns the oldest pending entry, or nil when the queue is empty
func (s *Store) NextPending() (*QueueEntry, error) {
	var entry QueueEntry
	err := s.db.Where("status = ?", StatusPending).Order("id asc").First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarkUploaded records a successful publish
func (s *Store) MarkUploaded(id uint, youtubeID, tagStrategy string) error {
	now := time.Now()
	return s.db.Model(&QueueEntry{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      StatusUploaded,
		"uploaded_at": &now,
		"you_tube_id": youtubeID,
		"hashtag_set": tagStrategy,
	}).Error
}

// MarkFailed flags an entry whose publish failed for an ordinary reason
func (s *Store) MarkFailed(id uint) error {
	return s.db.Model(&QueueEntry{}).Where("id = ?", id).Update("status", StatusFailed).Error
}

// IsCreatorRecent reports whether the creator was used within the window
func (s *Store) IsCreatorRecent(platform types.Platform, creatorID string, windowDays int) (bool, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays)
	var count int64
	err := s.db.Model(&CreatorHistory{}).
		Where("platform = ? AND creator_id = ? AND last_used_at IS NOT NULL AND last_used_at >= ?",
			string(platform), creatorID, cutoff).
		Count(&count).Error
	return count > 0, err
}

// MarkCreatorUsed upserts the creator's last-used timestamp
func (s *Store) MarkCreatorUsed(platform types.Platform, creatorID, creatorName string) error {
	now := time.Now()
	var row CreatorHistory
	err := s.db.Where("platform = ? AND creator_id = ?", string(platform), creatorID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		row = CreatorHistory{Platform: string(platform), CreatorID: creatorID, CreatorName: creatorName, LastUsedAt: &now}
		return s.db.Create(&row).Error
	}
	if err != nil {
		return err
	}
	row.LastUsedAt = &now
	return s.db.Save(&row).Error
}

// IsClipUsed reports whether the clip has ever been consumed
func (s *Store) IsClipUsed(platform types.Platform, clipID string) (bool, error) {
	var count int64
	err := s.db.Model(&ClipHistory{}).
		Where("platform = ? AND clip_id = ?", string(platform), clipID).
		Count(&count).Error
	return count > 0, err
}

// MarkClipUsed records a consumed clip
func (s *Store) MarkClipUsed(platform types.Platform, clipID, clipURL, creatorID string) error {
	now := time.Now()
	return s.db.Create(&ClipHistory{
		Platform:  string(platform),
		ClipID:    clipID,
		ClipURL:   clipURL,
		CreatorID: creatorID,
		UsedAt:    &now,
	}).Error
}

// Pending returns the whole pending queue, oldest first (queue inspection)
func (s *Store) Pending() ([]QueueEntry, error) {
	var entries []QueueEntry
	err := s.db.Where("status = ?", StatusPending).Order("id asc").Find(&entries).Error
	return entries, err
}
