// Package storage keeps uploaded audio payloads behind a single interface so
// the rest of the service never branches on where bytes live.
package storage

import (
	"context"
	"errors"
	"fmt"

	"voicesocial/internal/config"

	"gorm.io/gorm"
)

// ErrAudioNotFound is returned when no payload is stored for a voice.
var ErrAudioNotFound = errors.New("audio not found")

// Audio is a stored payload.
type Audio struct {
	MimeType string
	Data     []byte
}

// AudioStore persists audio bytes keyed by voice id.
type AudioStore interface {
	// Put stores data for voiceID and returns the URL clients fetch it from.
	Put(ctx context.Context, voiceID string, data []byte, mimeType string) (string, error)
	Get(ctx context.Context, voiceID string) (*Audio, error)
	Delete(ctx context.Context, voiceID string) error
	Kind() string
}

// New returns the store selected by cfg.Backend.
func New(cfg config.Storage, conn *gorm.DB) (AudioStore, error) {
	switch cfg.Backend {
	case "blob":
		return NewBlobStore(conn), nil
	case "file":
		return NewFileStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// AudioURL is the public path the audio endpoint serves a voice from.
func AudioURL(voiceID string) string {
	return "/api/voices/" + voiceID + "/audio"
}
