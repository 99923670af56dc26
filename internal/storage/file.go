package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// 常见录音格式的扩展名，浏览器 MediaRecorder 默认输出 webm
var audioExtensions = map[string]string{
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/aac":   ".aac",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/flac":  ".flac",
}

var extensionTypes = map[string]string{
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wav":  "audio/wav",
	".flac": "audio/flac",
}

// FileStore keeps one file per voice under a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Kind() string { return "file" }

func (s *FileStore) Put(ctx context.Context, voiceID string, data []byte, mimeType string) (string, error) {
	if _, err := uuid.Parse(voiceID); err != nil {
		return "", fmt.Errorf("invalid voice id %q", voiceID)
	}
	if err := s.Delete(ctx, voiceID); err != nil {
		return "", err
	}

	ext, ok := audioExtensions[baseType(mimeType)]
	if !ok {
		ext = ".bin"
	}
	target := filepath.Join(s.dir, voiceID+ext)

	// 先写临时文件再重命名，避免读到半截文件
	tmp, err := os.CreateTemp(s.dir, voiceID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close audio file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("commit audio file: %w", err)
	}
	return AudioURL(voiceID), nil
}

func (s *FileStore) Get(ctx context.Context, voiceID string) (*Audio, error) {
	path, err := s.find(voiceID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrAudioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	mimeType, ok := extensionTypes[filepath.Ext(path)]
	if !ok {
		mimeType = "application/octet-stream"
	}
	return &Audio{MimeType: mimeType, Data: data}, nil
}

func (s *FileStore) Delete(ctx context.Context, voiceID string) error {
	path, err := s.find(voiceID)
	if errors.Is(err, ErrAudioNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete audio file: %w", err)
	}
	return nil
}

func (s *FileStore) find(voiceID string) (string, error) {
	if _, err := uuid.Parse(voiceID); err != nil {
		return "", ErrAudioNotFound
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, voiceID+".*"))
	if err != nil {
		return "", fmt.Errorf("find audio file: %w", err)
	}
	for _, m := range matches {
		if !strings.HasSuffix(m, ".tmp") {
			return m, nil
		}
	}
	return "", ErrAudioNotFound
}

// baseType strips parameters such as "; codecs=opus".
func baseType(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}
