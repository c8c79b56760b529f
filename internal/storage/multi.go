package storage

import (
	"context"

	"github.com/bdougie/promptmorph/internal/models"
)

type multiStorage []Storage

// Multi fans every record out to all the given stores.
func Multi(stores ...Storage) Storage {
	if len(stores) == 1 {
		return stores[0]
	}
	return multiStorage(stores)
}

func (m multiStorage) AddPrompt(ctx context.Context, prompt string, seed int, embedding []float32) error {
	for _, s := range m {
		if err := s.AddPrompt(ctx, prompt, seed, embedding); err != nil {
			return err
		}
	}
	return nil
}

func (m multiStorage) AddFrame(ctx context.Context, rec models.FrameRecord) error {
	for _, s := range m {
		if err := s.AddFrame(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m multiStorage) Flush() error {
	for _, s := range m {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	return nil
}
