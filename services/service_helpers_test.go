package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/velora/tokenmarket/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Account{},
		&models.LedgerEntry{},
		&models.Booking{},
		&models.FeeConfig{},
		&models.FeeChangeRequest{},
		&models.FeeChangeLog{},
		&models.OTPChallenge{},
		&models.Assignment{},
		&models.Dispute{},
	)
	require.NoError(t, err)
	return db
}

var seededUsers int

func createUser(t *testing.T, db *gorm.DB, role models.Role, balance int64) *models.User {
	t.Helper()
	seededUsers++
	phone := fmt.Sprintf("+2547%08d", seededUsers)
	user := models.User{
		Email:              fmt.Sprintf("user%d-%s@example.com", seededUsers, role),
		Password:           "hashed",
		Phone:              &phone,
		Role:               role,
		VerificationStatus: models.VerificationVerified,
		IsActive:           true,
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.Account{UserID: user.ID, Balance: balance}).Error)
	return &user
}

func createProvider(t *testing.T, db *gorm.DB, hourlyRate int64) *models.User {
	t.Helper()
	provider := createUser(t, db, models.RoleProvider, 0)
	require.NoError(t, db.Create(&models.Profile{
		UserID:      provider.ID,
		DisplayName: "Provider " + provider.Email,
		HourlyRate:  hourlyRate,
	}).Error)
	return provider
}

func createBooking(t *testing.T, db *gorm.DB, seekerID, providerID uint, status models.BookingStatus, total int64) *models.Booking {
	t.Helper()
	booking := models.Booking{
		SeekerID:      seekerID,
		ProviderID:    providerID,
		StartTime:     time.Now().Add(48 * time.Hour),
		DurationHours: 2,
		TotalTokens:   total,
		BookingType:   models.BookingIncall,
		Status:        status,
	}
	require.NoError(t, db.Create(&booking).Error)
	return &booking
}

func accountFor(t *testing.T, db *gorm.DB, userID uint) *models.Account {
	t.Helper()
	var account models.Account
	require.NoError(t, db.Where("user_id = ?", userID).First(&account).Error)
	return &account
}
