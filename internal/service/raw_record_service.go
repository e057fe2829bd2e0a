package service

import (
	"context"
	"fmt"

	"orubacontacts/internal/models"
	"orubacontacts/internal/repository"
)

type RawRecordService interface {
	List(ctx context.Context, page, limit int) (*Page[models.RawRecord], error)
	Get(ctx context.Context, id string) (*models.RawRecord, error)
}

type rawRecordService struct {
	store *repository.Store
}

func NewRawRecordService(store *repository.Store) RawRecordService {
	return &rawRecordService{store: store}
}

func (s *rawRecordService) List(ctx context.Context, page, limit int) (*Page[models.RawRecord], error) {
	records, total, err := s.store.RawRecords.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw records: %w", err)
	}
	return newPage(records, page, limit, total), nil
}

// Get возвращает запись вместе с непривязанными кандидатами.
func (s *rawRecordService) Get(ctx context.Context, id string) (*models.RawRecord, error) {
	return s.store.RawRecords.GetWithUnmatched(ctx, id)
}
