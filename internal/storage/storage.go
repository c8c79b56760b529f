package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bdougie/promptmorph/internal/models"
)

const batchSize = 10 // Number of frame records to batch write

// Storage records what a run produced: the (prompt, seed) anchors with
// their embeddings, and one record per rendered frame.
type Storage interface {
	// AddPrompt records an anchor prompt, its seed and its text embedding
	AddPrompt(ctx context.Context, prompt string, seed int, embedding []float32) error

	// AddFrame records a single rendered frame
	AddFrame(ctx context.Context, rec models.FrameRecord) error

	// Flush ensures all pending records are saved
	Flush() error
}

type manifestPrompt struct {
	Prompt        string `json:"prompt"`
	Seed          int    `json:"seed"`
	EmbeddingDims int    `json:"embedding_dims"`
}

type manifest struct {
	Prompts []manifestPrompt     `json:"prompts"`
	Frames  []models.FrameRecord `json:"frames"`
}

// manifestStorage writes the run manifest as JSON next to the frames
type manifestStorage struct {
	mu        sync.Mutex
	outputDir string
	prompts   []manifestPrompt
	pending   []models.FrameRecord
}

// NewStorage creates a manifest store rooted at the frame output directory
func NewStorage(outputDir string) *manifestStorage {
	return &manifestStorage{outputDir: outputDir}
}

func (s *manifestStorage) AddPrompt(ctx context.Context, prompt string, seed int, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, manifestPrompt{
		Prompt:        prompt,
		Seed:          seed,
		EmbeddingDims: len(embedding),
	})
	return s.flush()
}

// AddFrame adds a record to the batch and flushes if the batch is full
func (s *manifestStorage) AddFrame(ctx context.Context, rec models.FrameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, rec)

	if len(s.pending) >= batchSize {
		if err := s.flush(); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes all pending records to disk
func (s *manifestStorage) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// Internal flush implementation
func (s *manifestStorage) flush() error {
	manifestPath := filepath.Join(s.outputDir, "manifest.json")

	var m manifest
	if data, err := os.ReadFile(manifestPath); err == nil {
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("failed to unmarshal existing manifest: %v", err)
		}
	}

	m.Prompts = s.prompts
	m.Frames = append(m.Frames, s.pending...)

	if _, err := os.Stat(s.outputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(s.outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for manifest: %v", err)
		}
	}

	file, err := os.Create(manifestPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(m); err != nil {
		return err
	}

	s.pending = nil // Clear the batch
	return nil
}
