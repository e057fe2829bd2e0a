package repository

import (
	"context"
	"errors"

	"orubacontacts/internal/apperrors"

	"gorm.io/gorm"
)

// Store объединяет репозитории поверх одного *gorm.DB, чтобы транзакция
// видела их все с одним и тем же соединением.
type Store struct {
	db *gorm.DB

	RawRecords RawRecordRepository
	Candidates CandidateRepository
	Contacts   ContactRepository
	Lookups    LookupRepository
	Stats      StatsRepository
	Imports    ImportRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		RawRecords: NewRawRecordRepository(db),
		Candidates: NewCandidateRepository(db),
		Contacts:   NewContactRepository(db),
		Lookups:    NewLookupRepository(db),
		Stats:      NewStatsRepository(db),
		Imports:    NewImportRepository(db),
	}
}

// Transaction выполняет fn в одной транзакции; любая ошибка откатывает все изменения.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFound(err error, resource, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource, id)
	}
	return err
}

func conflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Join(apperrors.ErrConflict, err)
	}
	return err
}
