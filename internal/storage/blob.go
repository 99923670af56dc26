package storage

import (
	"context"
	"errors"
	"fmt"

	"voicesocial/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlobStore keeps audio inline in the voice_audio table.
type BlobStore struct {
	db *gorm.DB
}

func NewBlobStore(conn *gorm.DB) *BlobStore {
	return &BlobStore{db: conn}
}

func (s *BlobStore) Kind() string { return "blob" }

func (s *BlobStore) Put(ctx context.Context, voiceID string, data []byte, mimeType string) (string, error) {
	row := models.VoiceAudio{
		VoiceID:  voiceID,
		MimeType: mimeType,
		Data:     data,
	}
	err := s.db.WithContext(ctx).
		Omit("Voice").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "voice_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"mime_type", "data"}),
		}).
		Create(&row).Error
	if err != nil {
		return "", fmt.Errorf("store audio blob: %w", err)
	}
	return AudioURL(voiceID), nil
}

func (s *BlobStore) Get(ctx context.Context, voiceID string) (*Audio, error) {
	var row models.VoiceAudio
	err := s.db.WithContext(ctx).Where("voice_id = ?", voiceID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAudioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load audio blob: %w", err)
	}
	if len(row.Data) == 0 {
		return nil, ErrAudioNotFound
	}
	return &Audio{MimeType: row.MimeType, Data: row.Data}, nil
}

func (s *BlobStore) Delete(ctx context.Context, voiceID string) error {
	if err := s.db.WithContext(ctx).Where("voice_id = ?", voiceID).Delete(&models.VoiceAudio{}).Error; err != nil {
		return fmt.Errorf("delete audio blob: %w", err)
	}
	return nil
}
