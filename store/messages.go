package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	oracleworker "github.com/celestine-app/oracle-worker"
)

// messageRow is the table shape of one stored message. Content columns
// are bytea, written and read only through pgp_sym_encrypt/decrypt.
type messageRow struct {
	ID                    uint64 `gorm:"primaryKey;autoIncrement"`
	UserIDHash            string `gorm:"column:user_id_hash;size:64;index:idx_messages_user_role,priority:1"`
	Role                  string `gorm:"size:32;index:idx_messages_user_role,priority:2"`
	ContentFull           []byte `gorm:"column:content_full"`
	ContentBrief          []byte `gorm:"column:content_brief"`
	LanguageCode          string `gorm:"size:8"`
	ContentFullLocalized  []byte `gorm:"column:content_full_localized"`
	ContentBriefLocalized []byte `gorm:"column:content_brief_localized"`
	HoroscopeRange        string `gorm:"size:16"`
	MoonPhase             string `gorm:"size:32"`
	CreatedAt             time.Time
	CreatedAtLocalDate    string `gorm:"size:10"`
}

func (messageRow) TableName() string { return "oracle_messages" }

// decryptedRow is the scan target for reads that decrypt in the query.
type decryptedRow struct {
	UserIDHash            string
	Role                  string
	ContentFull           string
	ContentBrief          string
	LanguageCode          string
	ContentFullLocalized  string
	ContentBriefLocalized string
	HoroscopeRange        string
	MoonPhase             string
	CreatedAt             time.Time
	CreatedAtLocalDate    string
}

const decryptedColumns = `user_id_hash, role,
	pgp_sym_decrypt(content_full, @key) AS content_full,
	pgp_sym_decrypt(content_brief, @key) AS content_brief,
	language_code,
	pgp_sym_decrypt(content_full_localized, @key) AS content_full_localized,
	pgp_sym_decrypt(content_brief_localized, @key) AS content_brief_localized,
	horoscope_range, moon_phase, created_at, created_at_local_date`

// MessageStore is the Postgres implementation of the message log.
// Append-only: no update or delete path exists.
type MessageStore struct {
	db  *gorm.DB
	key string
	log *logrus.Entry
}

// NewMessageStore wraps an opened database. key is the pgcrypto
// symmetric key; all readers and writers must share it.
func NewMessageStore(db *gorm.DB, key string) *MessageStore {
	return &MessageStore{
		db:  db,
		key: key,
		log: logrus.WithField("component", "message_store"),
	}
}

// Append writes one immutable row, encrypting all content columns.
// Baseline-language rows store NULL for language_code and the localized
// pair; pgp_sym_encrypt passes NULL through.
func (s *MessageStore) Append(ctx context.Context, msg *oracleworker.StoredMessage) error {
	var langCode, fullLocalized, briefLocalized interface{}
	if msg.LanguageCode != "" {
		langCode = msg.LanguageCode
		if msg.ContentFullLocalized != "" {
			fullLocalized = msg.ContentFullLocalized
		}
		if msg.ContentBriefLocalized != "" {
			briefLocalized = msg.ContentBriefLocalized
		}
	}
	err := s.db.WithContext(ctx).Exec(`
		INSERT INTO oracle_messages
			(user_id_hash, role, content_full, content_brief,
			 language_code, content_full_localized, content_brief_localized,
			 horoscope_range, moon_phase, created_at, created_at_local_date)
		VALUES
			(?, ?, pgp_sym_encrypt(?, ?), pgp_sym_encrypt(?, ?),
			 ?, pgp_sym_encrypt(?, ?), pgp_sym_encrypt(?, ?),
			 ?, ?, ?, ?)`,
		msg.UserIDHash, msg.Role,
		msg.ContentFull, s.key, msg.ContentBrief, s.key,
		langCode,
		fullLocalized, s.key, briefLocalized, s.key,
		msg.HoroscopeRange, msg.MoonPhase,
		msg.CreatedAt, msg.CreatedAtLocalDate,
	).Error
	return errors.Wrap(err, "appending message")
}

// Latest returns the most recent row for (user, role, tags), nil when
// none exists.
func (s *MessageStore) Latest(ctx context.Context, userIDHash, role string, tags oracleworker.MessageTags) (*oracleworker.StoredMessage, error) {
	query := `SELECT ` + decryptedColumns + `
		FROM oracle_messages
		WHERE user_id_hash = @hash AND role = @role`
	args := map[string]interface{}{"key": s.key, "hash": userIDHash, "role": role}
	if tags.HoroscopeRange != "" {
		query += " AND horoscope_range = @range"
		args["range"] = tags.HoroscopeRange
	}
	if tags.MoonPhase != "" {
		query += " AND moon_phase = @phase"
		args["phase"] = tags.MoonPhase
	}
	query += " ORDER BY created_at DESC LIMIT 1"

	var row decryptedRow
	result := s.db.WithContext(ctx).Raw(query, args).Scan(&row)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "loading latest message")
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	msg := row.toMessage()
	return &msg, nil
}

// History returns the most recent rows in chronological order.
func (s *MessageStore) History(ctx context.Context, userIDHash string, limit int) ([]oracleworker.StoredMessage, error) {
	var rows []decryptedRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT `+decryptedColumns+`
		FROM oracle_messages
		WHERE user_id_hash = @hash
		ORDER BY created_at DESC
		LIMIT @limit`,
		map[string]interface{}{"key": s.key, "hash": userIDHash, "limit": limit},
	).Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "loading message history")
	}

	// Query is newest-first for the limit; callers want oldest-first.
	msgs := make([]oracleworker.StoredMessage, len(rows))
	for i, row := range rows {
		msgs[len(rows)-1-i] = row.toMessage()
	}
	return msgs, nil
}

func (r decryptedRow) toMessage() oracleworker.StoredMessage {
	return oracleworker.StoredMessage{
		UserIDHash:            r.UserIDHash,
		Role:                  r.Role,
		ContentFull:           r.ContentFull,
		ContentBrief:          r.ContentBrief,
		LanguageCode:          r.LanguageCode,
		ContentFullLocalized:  r.ContentFullLocalized,
		ContentBriefLocalized: r.ContentBriefLocalized,
		HoroscopeRange:        r.HoroscopeRange,
		MoonPhase:             r.MoonPhase,
		CreatedAt:             r.CreatedAt,
		CreatedAtLocalDate:    r.CreatedAtLocalDate,
	}
}
