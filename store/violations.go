package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	oracleworker "github.com/celestine-app/oracle-worker"
)

// violationRow is one row of a user's moderation history. Rows append;
// a redemption zeroes the latest row's count in place so the audit
// trail of prior counts survives in older rows.
type violationRow struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	UserIDHash      string `gorm:"column:user_id_hash;size:64;index:idx_violations_user_type,priority:1"`
	Type            string `gorm:"size:32;index:idx_violations_user_type,priority:2"`
	Count           int
	Message         string `gorm:"size:500"`
	Severity        string `gorm:"size:16"`
	LastViolationAt time.Time
	RedeemedAt      *time.Time
	AccountDisabled bool
	CreatedAt       time.Time
}

func (violationRow) TableName() string { return "oracle_violations" }

// ViolationStore is the Postgres implementation of violation history.
type ViolationStore struct {
	db *gorm.DB
}

func NewViolationStore(db *gorm.DB) *ViolationStore {
	return &ViolationStore{db: db}
}

// Latest returns the most recent record for (user, type), nil when the
// user has no history of that type.
func (s *ViolationStore) Latest(ctx context.Context, userIDHash string, vtype oracleworker.ViolationType) (*oracleworker.ViolationRecord, error) {
	var row violationRow
	err := s.db.WithContext(ctx).
		Where("user_id_hash = ? AND type = ?", userIDHash, string(vtype)).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading latest violation")
	}
	rec := row.toRecord()
	return &rec, nil
}

// Append writes a new violation row.
func (s *ViolationStore) Append(ctx context.Context, rec *oracleworker.ViolationRecord) error {
	row := violationRow{
		UserIDHash:      rec.UserIDHash,
		Type:            string(rec.Type),
		Count:           rec.Count,
		Message:         rec.Message,
		Severity:        rec.Severity,
		LastViolationAt: rec.LastViolationAt,
		RedeemedAt:      rec.RedeemedAt,
		AccountDisabled: rec.AccountDisabled,
	}
	return errors.Wrap(
		s.db.WithContext(ctx).Create(&row).Error,
		"appending violation",
	)
}

// ResetCount zeroes the latest record's count and stamps the redemption
// time. Reports false when the user has no record of the type.
func (s *ViolationStore) ResetCount(ctx context.Context, userIDHash string, vtype oracleworker.ViolationType, redeemedAt time.Time) (bool, error) {
	var row violationRow
	err := s.db.WithContext(ctx).
		Where("user_id_hash = ? AND type = ?", userIDHash, string(vtype)).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "loading violation for reset")
	}

	err = s.db.WithContext(ctx).Model(&violationRow{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{"count": 0, "redeemed_at": redeemedAt}).Error
	if err != nil {
		return false, errors.Wrap(err, "resetting violation count")
	}
	return true, nil
}

// DisableAccount sets the terminal flag on the user's history. No code
// path in the worker clears it.
func (s *ViolationStore) DisableAccount(ctx context.Context, userIDHash string) error {
	return errors.Wrap(
		s.db.WithContext(ctx).Model(&violationRow{}).
			Where("user_id_hash = ?", userIDHash).
			Update("account_disabled", true).Error,
		"disabling account",
	)
}

// Disabled reports whether any of the user's rows carry the terminal
// flag.
func (s *ViolationStore) Disabled(ctx context.Context, userIDHash string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&violationRow{}).
		Where("user_id_hash = ? AND account_disabled", userIDHash).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "checking disabled flag")
	}
	return count > 0, nil
}

func (r violationRow) toRecord() oracleworker.ViolationRecord {
	return oracleworker.ViolationRecord{
		UserIDHash:      r.UserIDHash,
		Type:            oracleworker.ViolationType(r.Type),
		Count:           r.Count,
		Message:         r.Message,
		Severity:        r.Severity,
		LastViolationAt: r.LastViolationAt,
		RedeemedAt:      r.RedeemedAt,
		AccountDisabled: r.AccountDisabled,
	}
}
