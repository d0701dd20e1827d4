package store

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	oracleworker "github.com/celestine-app/oracle-worker"
)

// Temporary guest accounts are recognized by their synthetic email.
const (
	tempEmailPrefix = "temp_"
	tempEmailDomain = "@psychic.local"
)

// recentActivityWindow bounds which users the startup sweep generates
// content for.
const recentActivityWindow = 365 * 24 * time.Hour

// The user tables are owned by the account service; these models exist
// only to read and patch them, never to migrate them.

type personalInfoRow struct {
	UserID         string `gorm:"column:user_id;primaryKey"`
	Email          string
	FirstName      string
	PreferredName  string
	BirthDate      string
	BirthTime      string
	BirthCountry   string
	BirthProvince  string
	BirthCity      string
	Timezone       string
	SuspendedUntil *time.Time
}

func (personalInfoRow) TableName() string { return "user_personal_info" }

type astrologyRow struct {
	UserID          string `gorm:"column:user_id;primaryKey"`
	SunSign         string
	SunDegree       float64
	MoonSign        string
	MoonDegree      float64
	RisingSign      string
	RisingDegree    float64
	VenusSign       string
	VenusDegree     float64
	MarsSign        string
	MarsDegree      float64
	MercurySign     string
	MercuryDegree   float64
	NorthNodeSign   string
	NorthNodeDegree float64
	Latitude        float64
	Longitude       float64
	Timezone        string
	CalculatedAt    time.Time
	UpdatedAt       time.Time
}

func (astrologyRow) TableName() string { return "user_astrology" }

type preferencesRow struct {
	UserID         string `gorm:"column:user_id;primaryKey"`
	Language       string
	OracleLanguage string
	LastActiveAt   time.Time
}

func (preferencesRow) TableName() string { return "user_preferences" }

// UserDirectory is the Postgres implementation of user state access.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

// Resolve assembles the per-job user snapshot from the three user
// tables. Astrology and preferences are optional; personal info is not.
func (d *UserDirectory) Resolve(ctx context.Context, userID string) (*oracleworker.UserContext, error) {
	var personal personalInfoRow
	err := d.db.WithContext(ctx).First(&personal, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, oracleworker.ErrPersonalInfoMissing
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading personal info")
	}

	uctx := &oracleworker.UserContext{
		UserID:        userID,
		IDHash:        oracleworker.HashUserID(userID),
		FirstName:     personal.FirstName,
		PreferredName: personal.PreferredName,
		Birth: oracleworker.BirthDetails{
			Date:     personal.BirthDate,
			Time:     personal.BirthTime,
			Country:  personal.BirthCountry,
			Province: personal.BirthProvince,
			City:     personal.BirthCity,
			Timezone: personal.Timezone,
		},
		Timezone:      personal.Timezone,
		Temporary:     isTempEmail(personal.Email),
		Suspended:     personal.SuspendedUntil != nil,
		SuspensionEnd: personal.SuspendedUntil,
	}

	var astro astrologyRow
	err = d.db.WithContext(ctx).First(&astro, "user_id = ?", userID).Error
	if err == nil {
		uctx.Astrology = astro.toSnapshot()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "loading astrology")
	}

	var prefs preferencesRow
	err = d.db.WithContext(ctx).First(&prefs, "user_id = ?", userID).Error
	if err == nil {
		uctx.Language = prefs.Language
		uctx.OracleLanguage = prefs.OracleLanguage
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "loading preferences")
	}

	return uctx, nil
}

// SaveAstrology upserts the computed natal snapshot.
func (d *UserDirectory) SaveAstrology(ctx context.Context, userID string, snap *oracleworker.AstrologySnapshot) error {
	row := astrologyRow{
		UserID:          userID,
		SunSign:         snap.SunSign,
		SunDegree:       snap.SunDegree,
		MoonSign:        snap.MoonSign,
		MoonDegree:      snap.MoonDegree,
		RisingSign:      snap.RisingSign,
		RisingDegree:    snap.RisingDegree,
		VenusSign:       snap.VenusSign,
		VenusDegree:     snap.VenusDegree,
		MarsSign:        snap.MarsSign,
		MarsDegree:      snap.MarsDegree,
		MercurySign:     snap.MercurySign,
		MercuryDegree:   snap.MercuryDegree,
		NorthNodeSign:   snap.NorthNodeSign,
		NorthNodeDegree: snap.NorthNodeDegree,
		Latitude:        snap.Latitude,
		Longitude:       snap.Longitude,
		Timezone:        snap.Timezone,
		CalculatedAt:    snap.CalculatedAt,
	}
	return errors.Wrap(
		d.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).Create(&row).Error,
		"saving astrology",
	)
}

// SetSuspension marks the account suspended until the given time.
func (d *UserDirectory) SetSuspension(ctx context.Context, userID string, until time.Time) error {
	return errors.Wrap(
		d.db.WithContext(ctx).Model(&personalInfoRow{}).
			Where("user_id = ?", userID).
			Update("suspended_until", until).Error,
		"setting suspension",
	)
}

// LiftSuspension clears an expired suspension.
func (d *UserDirectory) LiftSuspension(ctx context.Context, userID string) error {
	return errors.Wrap(
		d.db.WithContext(ctx).Model(&personalInfoRow{}).
			Where("user_id = ?", userID).
			Update("suspended_until", nil).Error,
		"lifting suspension",
	)
}

// DeleteTemporary removes a temporary account's user rows. The hashed
// message log is left in place; without the raw id it no longer links
// to anyone.
func (d *UserDirectory) DeleteTemporary(ctx context.Context, userID string) error {
	return errors.Wrap(
		d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var personal personalInfoRow
			err := tx.First(&personal, "user_id = ?", userID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if !isTempEmail(personal.Email) {
				return errors.New("refusing to delete non-temporary account")
			}
			for _, model := range []interface{}{
				&astrologyRow{}, &preferencesRow{}, &personalInfoRow{},
			} {
				if err := tx.Delete(model, "user_id = ?", userID).Error; err != nil {
					return err
				}
			}
			return nil
		}),
		"deleting temporary account",
	)
}

// RecentUserIDs lists non-temporary users active within the last year.
func (d *UserDirectory) RecentUserIDs(ctx context.Context) ([]string, error) {
	cutoff := time.Now().Add(-recentActivityWindow)
	var ids []string
	err := d.db.WithContext(ctx).
		Table("user_personal_info").
		Joins("JOIN user_preferences ON user_preferences.user_id = user_personal_info.user_id").
		Where("user_preferences.last_active_at > ?", cutoff).
		Where("user_personal_info.email NOT LIKE ?", tempEmailPrefix+"%"+tempEmailDomain).
		Pluck("user_personal_info.user_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing recent users")
	}
	return ids, nil
}

func isTempEmail(email string) bool {
	return strings.HasPrefix(email, tempEmailPrefix) && strings.HasSuffix(email, tempEmailDomain)
}

func (r astrologyRow) toSnapshot() *oracleworker.AstrologySnapshot {
	return &oracleworker.AstrologySnapshot{
		SunSign:         r.SunSign,
		SunDegree:       r.SunDegree,
		MoonSign:        r.MoonSign,
		MoonDegree:      r.MoonDegree,
		RisingSign:      r.RisingSign,
		RisingDegree:    r.RisingDegree,
		VenusSign:       r.VenusSign,
		VenusDegree:     r.VenusDegree,
		MarsSign:        r.MarsSign,
		MarsDegree:      r.MarsDegree,
		MercurySign:     r.MercurySign,
		MercuryDegree:   r.MercuryDegree,
		NorthNodeSign:   r.NorthNodeSign,
		NorthNodeDegree: r.NorthNodeDegree,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Timezone:        r.Timezone,
		CalculatedAt:    r.CalculatedAt,
	}
}
