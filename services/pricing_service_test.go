package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora/tokenmarket/models"
)

func TestEffectiveFee(t *testing.T) {
	db := setupTestDB(t)
	pricing := NewPricingService(db)
	admin := createUser(t, db, models.RoleSuperAdmin, 0)
	provider := createProvider(t, db, 100)

	t.Run("defaults without any config", func(t *testing.T) {
		assert.Equal(t, DefaultFeePercentage, pricing.EffectiveFee(provider.ID))
		assert.Equal(t, DefaultFeePercentage, pricing.EffectiveFee(0))
	})

	t.Run("global config applies to every provider", func(t *testing.T) {
		_, err := pricing.SetFee(admin.ID, 0.20, nil, "global adjustment")
		require.NoError(t, err)

		assert.Equal(t, 0.20, pricing.EffectiveFee(provider.ID))
		assert.Equal(t, 0.20, pricing.EffectiveFee(0))
	})

	t.Run("provider override wins over global", func(t *testing.T) {
		_, err := pricing.SetFee(admin.ID, 0.30, &provider.ID, "negotiated rate")
		require.NoError(t, err)

		assert.Equal(t, 0.30, pricing.EffectiveFee(provider.ID))
		assert.Equal(t, 0.20, pricing.EffectiveFee(0))
	})
}

func TestRates(t *testing.T) {
	db := setupTestDB(t)
	pricing := NewPricingService(db)
	admin := createUser(t, db, models.RoleSuperAdmin, 0)
	provider := createProvider(t, db, 100)

	t.Run("fee sits on top of the provider rate", func(t *testing.T) {
		_, err := pricing.SetFee(admin.ID, 0.30, &provider.ID, "test rate")
		require.NoError(t, err)

		rates := pricing.Rates(100, provider.ID)
		assert.Equal(t, int64(100), rates.ProviderRate)
		assert.Equal(t, int64(130), rates.SeekerRate)
		assert.Equal(t, int64(30), rates.FeeAmount)
	})

	t.Run("booking cost scales by duration", func(t *testing.T) {
		cost := pricing.BookingCost(100, provider.ID, 2)
		assert.Equal(t, int64(260), cost.TotalCost)
		assert.Equal(t, int64(200), cost.ProviderEarnings)
		assert.Equal(t, int64(60), cost.PlatformFee)
	})

	t.Run("provider preview uses the profile rate", func(t *testing.T) {
		preview, err := pricing.ProviderPreview(provider.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), preview.ProviderRate)
		assert.Equal(t, int64(130), preview.SeekerRate)
	})
}

func TestSetFee(t *testing.T) {
	db := setupTestDB(t)
	pricing := NewPricingService(db)
	admin := createUser(t, db, models.RoleSuperAdmin, 0)
	provider := createProvider(t, db, 100)

	t.Run("supersedes the previous active config", func(t *testing.T) {
		_, err := pricing.SetFee(admin.ID, 0.20, &provider.ID, "first")
		require.NoError(t, err)
		_, err = pricing.SetFee(admin.ID, 0.25, &provider.ID, "second")
		require.NoError(t, err)

		var active []models.FeeConfig
		require.NoError(t, db.Where("provider_id = ? AND is_active = ?", provider.ID, true).Find(&active).Error)
		require.Len(t, active, 1)
		assert.Equal(t, 0.25, active[0].FeePercentage)

		var all []models.FeeConfig
		require.NoError(t, db.Where("provider_id = ?", provider.ID).Find(&all).Error)
		assert.Len(t, all, 2)

		logs, err := pricing.ListChangeLogs(10)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, 0.20, logs[0].OldFee)
		assert.Equal(t, 0.25, logs[0].NewFee)
	})

	t.Run("rejects out-of-range percentage", func(t *testing.T) {
		_, err := pricing.SetFee(admin.ID, 1.5, nil, "bad")
		assert.True(t, IsValidation(err))
	})

	t.Run("rejects unknown provider scope", func(t *testing.T) {
		missing := uint(99999)
		_, err := pricing.SetFee(admin.ID, 0.2, &missing, "bad")
		assert.True(t, IsNotFound(err))
	})
}

func TestFeeChangeWorkflow(t *testing.T) {
	db := setupTestDB(t)
	pricing := NewPricingService(db)
	manager := createUser(t, db, models.RoleManager, 0)
	superAdmin := createUser(t, db, models.RoleSuperAdmin, 0)
	provider := createProvider(t, db, 100)

	t.Run("approval applies the requested fee", func(t *testing.T) {
		request, err := pricing.RequestFeeChange(manager.ID, 0.18, &provider.ID, "volume discount")
		require.NoError(t, err)
		assert.Equal(t, models.FeeRequestPending, request.Status)
		assert.Equal(t, DefaultFeePercentage, request.CurrentFee)

		reviewed, err := pricing.ReviewFeeChange(request.ID, superAdmin.ID, true, "approved")
		require.NoError(t, err)
		assert.Equal(t, models.FeeRequestApproved, reviewed.Status)
		assert.Equal(t, 0.18, pricing.EffectiveFee(provider.ID))

		logs, err := pricing.ListChangeLogs(10)
		require.NoError(t, err)
		require.NotEmpty(t, logs)
		require.NotNil(t, logs[0].RequestID)
		assert.Equal(t, request.ID, *logs[0].RequestID)
	})

	t.Run("rejection leaves the fee alone", func(t *testing.T) {
		request, err := pricing.RequestFeeChange(manager.ID, 0.50, &provider.ID, "raise")
		require.NoError(t, err)

		reviewed, err := pricing.ReviewFeeChange(request.ID, superAdmin.ID, false, "too high")
		require.NoError(t, err)
		assert.Equal(t, models.FeeRequestRejected, reviewed.Status)
		assert.Equal(t, 0.18, pricing.EffectiveFee(provider.ID))
	})

	t.Run("double review is rejected", func(t *testing.T) {
		request, err := pricing.RequestFeeChange(manager.ID, 0.22, nil, "global tweak")
		require.NoError(t, err)

		_, err = pricing.ReviewFeeChange(request.ID, superAdmin.ID, true, "")
		require.NoError(t, err)
		_, err = pricing.ReviewFeeChange(request.ID, superAdmin.ID, true, "")
		assert.True(t, IsValidation(err))
	})

	t.Run("requires justification", func(t *testing.T) {
		_, err := pricing.RequestFeeChange(manager.ID, 0.2, nil, "")
		assert.True(t, IsValidation(err))
	})
}
