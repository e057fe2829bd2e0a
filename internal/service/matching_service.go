package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orubacontacts/internal/apperrors"
	"orubacontacts/internal/models"
	"orubacontacts/internal/repository"
	"orubacontacts/internal/utils"

	"go.uber.org/zap"
)

type MatchingService interface {
	ClaimNext(ctx context.Context, operator string) (*ClaimedRecord, error)
	ReleaseLock(ctx context.Context, rawRecordID, operator string) error
	ReleaseStaleLocks(ctx context.Context) (int64, error)
	AssignOne(ctx context.Context, req AssignRequest) (*models.Contact, error)
	BatchAssign(ctx context.Context, req BatchAssignRequest) (*BatchResult, error)
	CompleteMatching(ctx context.Context, rawRecordID, operator string) (*models.RawRecord, error)
	JobTitles(ctx context.Context) ([]models.JobTitle, error)
	Hospitals(ctx context.Context, search string) ([]models.HospitalReference, error)
	Stats(ctx context.Context) (*repository.MatchingStats, error)
	StatsWorkbook(ctx context.Context) ([]byte, error)
}

type MatchingConfig struct {
	LockTimeout         time.Duration
	HospitalSearchLimit int
	ClaimAttempts       int
	StatsTTL            time.Duration
	LookupTTL           time.Duration
	// Now подменяется в тестах; по умолчанию time.Now в UTC.
	Now func() time.Time
}

// ClaimedRecord - запись, заблокированная оператором, с еще не привязанными кандидатами.
type ClaimedRecord struct {
	ID             string         `json:"id"`
	RawDataID      string         `json:"rawDataId"`
	Title          string         `json:"title"`
	Description    *string        `json:"description"`
	ListName       string         `json:"listName"`
	Phones         []models.Phone `json:"phones"`
	Emails         []models.Email `json:"emails"`
	TotalUnmatched int            `json:"totalUnmatched"`
}

// ContactFields - поля контакта, которые вводит оператор. Пустая строка - значение не задано.
type ContactFields struct {
	FirstName  string
	LastName   string
	JobTitleID string
	HospitalID string
	Notes      string
}

type AssignRequest struct {
	Operator string
	PhoneID  string
	EmailID  string
	Contact  ContactFields
}

type ContactGroup struct {
	ContactFields
	PhoneIDs []string
	EmailIDs []string
}

type BatchAssignRequest struct {
	Operator    string
	RawRecordID string
	Contacts    []ContactGroup
}

type AssignedContact struct {
	models.Contact
	PhoneCount int `json:"phoneCount"`
	EmailCount int `json:"emailCount"`
}

type BatchResult struct {
	Contacts   []AssignedContact `json:"contacts"`
	AllMatched bool              `json:"allMatched"`
}

type matchingService struct {
	store *repository.Store
	cache repository.CacheRepository
	cfg   MatchingConfig
	log   *zap.Logger
}

func NewMatchingService(
	store *repository.Store,
	cache repository.CacheRepository,
	cfg MatchingConfig,
	log *zap.Logger,
) MatchingService {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.ClaimAttempts <= 0 {
		cfg.ClaimAttempts = 1
	}
	if cfg.HospitalSearchLimit <= 0 {
		cfg.HospitalSearchLimit = 100
	}
	if cache == nil {
		cache = repository.NewNoopCache()
	}
	return &matchingService{store: store, cache: cache, cfg: cfg, log: log}
}

func requireOperator(operator string) (string, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return "", apperrors.Validation("username", "username is required")
	}
	return operator, nil
}

func (s *matchingService) ClaimNext(ctx context.Context, operator string) (*ClaimedRecord, error) {
	operator, err := requireOperator(operator)
	if err != nil {
		return nil, err
	}

	if released, err := s.ReleaseStaleLocks(ctx); err != nil {
		// очистка не обязательна: устаревшие блокировки и так считаются свободными
		s.log.Warn("Failed to release stale locks", zap.Error(err))
	} else if released > 0 {
		s.log.Info("Released stale locks", zap.Int64("count", released))
	}

	for attempt := 1; attempt <= s.cfg.ClaimAttempts; attempt++ {
		now := s.cfg.Now()
		cutoff := now.Add(-s.cfg.LockTimeout)

		id, err := s.store.RawRecords.NextClaimable(ctx, cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to select next record: %w", err)
		}
		if id == "" {
			return nil, apperrors.NotFound("unmatched record", "")
		}

		claimed, err := s.store.RawRecords.TryClaim(ctx, id, operator, now, cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to claim record %s: %w", id, err)
		}
		if !claimed {
			s.log.Debug("Record claimed by another operator, retrying",
				zap.String("raw_record_id", id),
				zap.Int("attempt", attempt),
			)
			continue
		}

		record, err := s.store.RawRecords.GetWithUnmatched(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load claimed record %s: %w", id, err)
		}
		s.invalidateStats(ctx)

		s.log.Info("Record claimed",
			zap.String("raw_record_id", id),
			zap.String("operator", operator),
		)
		return newClaimedRecord(record), nil
	}

	return nil, fmt.Errorf("%w: no record could be claimed after %d attempts", apperrors.ErrLockContention, s.cfg.ClaimAttempts)
}

func newClaimedRecord(record *models.RawRecord) *ClaimedRecord {
	phones := record.Phones
	if phones == nil {
		phones = []models.Phone{}
	}
	emails := record.Emails
	if emails == nil {
		emails = []models.Email{}
	}
	return &ClaimedRecord{
		ID:             record.ID,
		RawDataID:      record.ID,
		Title:          record.Title,
		Description:    record.Description,
		ListName:       record.ListName,
		Phones:         phones,
		Emails:         emails,
		TotalUnmatched: len(phones) + len(emails),
	}
}

func (s *matchingService) ReleaseLock(ctx context.Context, rawRecordID, operator string) error {
	operator, err := requireOperator(operator)
	if err != nil {
		return err
	}
	if rawRecordID == "" {
		return apperrors.Validation("rawDataId", "rawDataId and username are required")
	}

	released, err := s.store.RawRecords.ReleaseLock(ctx, rawRecordID, operator)
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if !released {
		if _, err := s.store.RawRecords.GetByID(ctx, rawRecordID); err != nil {
			return err
		}
		return apperrors.Forbidden("you do not have a lock on this record")
	}

	s.invalidateStats(ctx)
	s.log.Info("Lock released",
		zap.String("raw_record_id", rawRecordID),
		zap.String("operator", operator),
	)
	return nil
}

func (s *matchingService) ReleaseStaleLocks(ctx context.Context) (int64, error) {
	cutoff := s.cfg.Now().Add(-s.cfg.LockTimeout)
	released, err := s.store.RawRecords.ReleaseStaleLocks(ctx, cutoff)
	if err == nil && released > 0 {
		s.invalidateStats(ctx)
	}
	return released, err
}

// AssignOne создает контакт из одного телефона и/или email. Флаг is_fully_matched
// записи пересчитывается; блокировку и отметку о завершении снимает CompleteMatching.
func (s *matchingService) AssignOne(ctx context.Context, req AssignRequest) (*models.Contact, error) {
	operator, err := requireOperator(req.Operator)
	if err != nil {
		return nil, err
	}
	if req.PhoneID == "" && req.EmailID == "" {
		return nil, apperrors.Validation("phoneId", "either phoneId or emailId is required")
	}
	firstName := strings.TrimSpace(req.Contact.FirstName)
	if firstName == "" {
		return nil, apperrors.Validation("firstName", "first name is required")
	}

	var contact *models.Contact
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var (
			phone    *models.Phone
			email    *models.Email
			recordID string
			title    *string
		)

		if req.PhoneID != "" {
			if phone, err = tx.Candidates.GetPhone(ctx, req.PhoneID); err != nil {
				return err
			}
			if phone.IsMatched {
				return &apperrors.AlreadyMatchedError{Kind: "phone", Value: phone.PhoneNumber}
			}
			recordID, title = phone.RawRecordID, phone.TrelloTitle
		}

		if req.EmailID != "" {
			if email, err = tx.Candidates.GetEmail(ctx, req.EmailID); err != nil {
				return err
			}
			if email.IsMatched {
				return &apperrors.AlreadyMatchedError{Kind: "email", Value: email.EmailAddress}
			}
			if recordID != "" && email.RawRecordID != recordID {
				return apperrors.Validation("emailId", "phone and email belong to different raw records")
			}
			recordID = email.RawRecordID
			if title == nil {
				title = email.TrelloTitle
			}
		}

		if err := s.checkReferences(ctx, tx, req.Contact); err != nil {
			return err
		}

		contact = &models.Contact{
			FirstName:   firstName,
			LastName:    optional(req.Contact.LastName),
			Notes:       optional(req.Contact.Notes),
			TrelloTitle: title,
			RawRecordID: &recordID,
			JobTitleID:  optional(req.Contact.JobTitleID),
			HospitalID:  optional(req.Contact.HospitalID),
		}
		if phone != nil {
			contact.Phone = &phone.PhoneNumber
		}
		if email != nil {
			contact.Email = &email.EmailAddress
		}
		if err := tx.Contacts.Create(ctx, contact); err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}

		now := s.cfg.Now()
		match := repository.Match{ContactID: contact.ID, Operator: operator, At: now}
		if phone != nil {
			n, err := tx.Candidates.MarkPhonesMatched(ctx, []string{phone.ID}, match)
			if err != nil {
				return err
			}
			if n != 1 {
				return &apperrors.AlreadyMatchedError{Kind: "phone", Value: phone.PhoneNumber}
			}
		}
		if email != nil {
			n, err := tx.Candidates.MarkEmailsMatched(ctx, []string{email.ID}, match)
			if err != nil {
				return err
			}
			if n != 1 {
				return &apperrors.AlreadyMatchedError{Kind: "email", Value: email.EmailAddress}
			}
		}

		phones, emails, err := tx.RawRecords.CountUnmatched(ctx, recordID)
		if err != nil {
			return err
		}
		if phones+emails > 0 {
			return nil
		}
		// последний кандидат: запись завершается так же, как после пакетной привязки
		return tx.RawRecords.Complete(ctx, recordID, operator, now)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.log.Info("Contact assigned",
		zap.String("contact_id", contact.ID),
		zap.String("operator", operator),
	)
	return contact, nil
}

// BatchAssign создает все контакты группы в одной транзакции. Любая ошибка
// откатывает контакты, флаги кандидатов и блокировку.
func (s *matchingService) BatchAssign(ctx context.Context, req BatchAssignRequest) (*BatchResult, error) {
	operator, err := requireOperator(req.Operator)
	if err != nil {
		return nil, err
	}
	if req.RawRecordID == "" {
		return nil, apperrors.Validation("rawDataId", "username, rawDataId, and contacts array are required")
	}
	if len(req.Contacts) == 0 {
		return nil, apperrors.Validation("contacts", "at least one contact required")
	}

	result := &BatchResult{Contacts: make([]AssignedContact, 0, len(req.Contacts))}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		record, err := tx.RawRecords.GetByID(ctx, req.RawRecordID)
		if err != nil {
			return err
		}
		if record.LockedBy == nil || *record.LockedBy != operator {
			return apperrors.Forbidden("you do not have a lock on this record")
		}

		now := s.cfg.Now()
		for i, group := range req.Contacts {
			contact, err := s.assignGroup(ctx, tx, record, i, group, operator, now)
			if err != nil {
				return err
			}
			result.Contacts = append(result.Contacts, *contact)
		}

		phones, emails, err := tx.RawRecords.CountUnmatched(ctx, record.ID)
		if err != nil {
			return err
		}
		result.AllMatched = phones+emails == 0

		// блокировку снимаем только если она все еще наша
		finished, err := tx.RawRecords.FinishBatch(ctx, record.ID, operator, result.AllMatched, now)
		if err != nil {
			return err
		}
		if !finished {
			return apperrors.Forbidden("you do not have a lock on this record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.log.Info("Batch assigned",
		zap.String("raw_record_id", req.RawRecordID),
		zap.String("operator", operator),
		zap.Int("contacts", len(result.Contacts)),
		zap.Bool("all_matched", result.AllMatched),
	)
	return result, nil
}

func (s *matchingService) assignGroup(
	ctx context.Context,
	tx *repository.Store,
	record *models.RawRecord,
	index int,
	group ContactGroup,
	operator string,
	now time.Time,
) (*AssignedContact, error) {
	field := fmt.Sprintf("contacts[%d]", index)

	firstName := strings.TrimSpace(group.FirstName)
	if firstName == "" {
		return nil, apperrors.Validation(field+".firstName", "first name is required for all contacts")
	}

	phoneIDs := dedupe(group.PhoneIDs)
	emailIDs := dedupe(group.EmailIDs)

	phones, err := tx.Candidates.GetPhones(ctx, phoneIDs)
	if err != nil {
		return nil, err
	}
	emails, err := tx.Candidates.GetEmails(ctx, emailIDs)
	if err != nil {
		return nil, err
	}

	phoneByID := make(map[string]models.Phone, len(phones))
	for _, p := range phones {
		phoneByID[p.ID] = p
	}
	emailByID := make(map[string]models.Email, len(emails))
	for _, e := range emails {
		emailByID[e.ID] = e
	}

	for _, id := range phoneIDs {
		p, ok := phoneByID[id]
		if !ok {
			return nil, apperrors.NotFound("phone", id)
		}
		if p.RawRecordID != record.ID {
			return nil, apperrors.Validation(field+".phoneIds", fmt.Sprintf("phone %s does not belong to this record", p.PhoneNumber))
		}
		if p.IsMatched {
			return nil, &apperrors.AlreadyMatchedError{Kind: "phone", Value: p.PhoneNumber}
		}
	}
	for _, id := range emailIDs {
		e, ok := emailByID[id]
		if !ok {
			return nil, apperrors.NotFound("email", id)
		}
		if e.RawRecordID != record.ID {
			return nil, apperrors.Validation(field+".emailIds", fmt.Sprintf("email %s does not belong to this record", e.EmailAddress))
		}
		if e.IsMatched {
			return nil, &apperrors.AlreadyMatchedError{Kind: "email", Value: e.EmailAddress}
		}
	}

	// на контакте хранится только первый телефон и первый email группы
	contact := models.Contact{
		FirstName:   firstName,
		LastName:    optional(group.LastName),
		Notes:       record.Description,
		TrelloTitle: &record.Title,
		RawRecordID: &record.ID,
		JobTitleID:  optional(group.JobTitleID),
		HospitalID:  optional(group.HospitalID),
	}
	if group.Notes != "" {
		contact.Notes = &group.Notes
	}
	if len(phoneIDs) > 0 {
		normalized, err := utils.NormalizePhone(phoneByID[phoneIDs[0]].PhoneNumber)
		if err != nil {
			return nil, apperrors.WrapValidation(field+".phoneIds", "phone normalization failed", err)
		}
		contact.Phone = &normalized
	}
	if len(emailIDs) > 0 {
		normalized, err := utils.NormalizeEmail(emailByID[emailIDs[0]].EmailAddress)
		if err != nil {
			return nil, apperrors.WrapValidation(field+".emailIds", "email normalization failed", err)
		}
		contact.Email = &normalized
	}

	if err := s.checkReferences(ctx, tx, group.ContactFields); err != nil {
		return nil, err
	}
	if err := tx.Contacts.Create(ctx, &contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	match := repository.Match{ContactID: contact.ID, Operator: operator, At: now}
	n, err := tx.Candidates.MarkPhonesMatched(ctx, phoneIDs, match)
	if err != nil {
		return nil, err
	}
	if int(n) != len(phoneIDs) {
		return nil, &apperrors.AlreadyMatchedError{Kind: "phone", Value: strings.Join(phoneValues(phoneIDs, phoneByID), ", ")}
	}
	n, err = tx.Candidates.MarkEmailsMatched(ctx, emailIDs, match)
	if err != nil {
		return nil, err
	}
	if int(n) != len(emailIDs) {
		return nil, &apperrors.AlreadyMatchedError{Kind: "email", Value: strings.Join(emailValues(emailIDs, emailByID), ", ")}
	}

	return &AssignedContact{
		Contact:    contact,
		PhoneCount: len(phoneIDs),
		EmailCount: len(emailIDs),
	}, nil
}

func (s *matchingService) CompleteMatching(ctx context.Context, rawRecordID, operator string) (*models.RawRecord, error) {
	operator, err := requireOperator(operator)
	if err != nil {
		return nil, err
	}
	if rawRecordID == "" {
		return nil, apperrors.Validation("rawDataId", "rawDataId and username are required")
	}

	var record *models.RawRecord
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.RawRecords.GetByID(ctx, rawRecordID); err != nil {
			return err
		}

		phones, emails, err := tx.RawRecords.CountUnmatched(ctx, rawRecordID)
		if err != nil {
			return err
		}
		if phones+emails > 0 {
			return &apperrors.IncompleteMatchingError{UnmatchedPhones: phones, UnmatchedEmails: emails}
		}

		if err := tx.RawRecords.Complete(ctx, rawRecordID, operator, s.cfg.Now()); err != nil {
			return err
		}
		record, err = tx.RawRecords.GetByID(ctx, rawRecordID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.log.Info("Matching completed",
		zap.String("raw_record_id", rawRecordID),
		zap.String("operator", operator),
	)
	return record, nil
}

func (s *matchingService) checkReferences(ctx context.Context, tx *repository.Store, fields ContactFields) error {
	if fields.JobTitleID != "" {
		ok, err := tx.Lookups.JobTitleExists(ctx, fields.JobTitleID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NotFound("job title", fields.JobTitleID)
		}
	}
	if fields.HospitalID != "" {
		ok, err := tx.Lookups.HospitalExists(ctx, fields.HospitalID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NotFound("hospital", fields.HospitalID)
		}
	}
	return nil
}

func (s *matchingService) JobTitles(ctx context.Context) ([]models.JobTitle, error) {
	var titles []models.JobTitle
	if found, err := s.cache.GetJSON(ctx, repository.CacheKeyJobTitles, &titles); err != nil {
		s.log.Warn("Failed to read job titles from cache", zap.Error(err))
	} else if found {
		return titles, nil
	}

	titles, err := s.store.Lookups.ActiveJobTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get job titles: %w", err)
	}

	if err := s.cache.SetJSON(ctx, repository.CacheKeyJobTitles, titles, s.cfg.LookupTTL); err != nil {
		s.log.Warn("Failed to cache job titles", zap.Error(err))
	}
	return titles, nil
}

func (s *matchingService) Hospitals(ctx context.Context, search string) ([]models.HospitalReference, error) {
	hospitals, err := s.store.Lookups.SearchHospitals(ctx, utils.TurkishLower(search), s.cfg.HospitalSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get hospitals: %w", err)
	}
	return hospitals, nil
}

func (s *matchingService) Stats(ctx context.Context) (*repository.MatchingStats, error) {
	var stats repository.MatchingStats
	if found, err := s.cache.GetJSON(ctx, repository.CacheKeyMatchingStats, &stats); err != nil {
		s.log.Warn("Failed to read stats from cache", zap.Error(err))
	} else if found {
		return &stats, nil
	}

	fresh, err := s.store.Stats.MatchingStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get matching stats: %w", err)
	}

	if err := s.cache.SetJSON(ctx, repository.CacheKeyMatchingStats, fresh, s.cfg.StatsTTL); err != nil {
		s.log.Warn("Failed to cache stats", zap.Error(err))
	}
	return fresh, nil
}

func (s *matchingService) StatsWorkbook(ctx context.Context) ([]byte, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}

	rows := []utils.StatsRow{
		statsRow("rawData", stats.RawData),
		statsRow("phones", stats.Phones),
		statsRow("emails", stats.Emails),
	}
	return utils.CreateStatsWorkbook(rows, s.cfg.Now())
}

func statsRow(name string, p repository.Progress) utils.StatsRow {
	return utils.StatsRow{
		Name:      name,
		Total:     p.Total,
		Matched:   p.Matched,
		Unmatched: p.Unmatched,
		Locked:    p.Locked,
		Percent:   p.PercentComplete,
	}
}

func (s *matchingService) invalidateStats(ctx context.Context) {
	if err := s.cache.Delete(ctx, repository.CacheKeyMatchingStats); err != nil {
		s.log.Warn("Failed to invalidate stats cache", zap.Error(err))
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func phoneValues(ids []string, byID map[string]models.Phone) []string {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, byID[id].PhoneNumber)
	}
	return values
}

func emailValues(ids []string, byID map[string]models.Email) []string {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, byID[id].EmailAddress)
	}
	return values
}
