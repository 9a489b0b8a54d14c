package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora/tokenmarket/models"
)

func TestDisputeOpen(t *testing.T) {
	db := setupTestDB(t)
	disputes := NewDisputeService(db, NewLedgerService(db))

	seeker := createUser(t, db, models.RoleSeeker, 1000)
	provider := createProvider(t, db, 100)
	booking := createBooking(t, db, seeker.ID, provider.ID, models.BookingCompleted, 260)

	t.Run("participant can open", func(t *testing.T) {
		dispute, err := disputes.Open(booking.ID, seeker.ID, models.DisputeServiceQuality, "session cut short")
		require.NoError(t, err)
		assert.Equal(t, models.DisputeOpen, dispute.Status)
		assert.Equal(t, seeker.ID, dispute.ReportedBy)
	})

	t.Run("outsiders cannot open", func(t *testing.T) {
		outsider := createUser(t, db, models.RoleSeeker, 0)
		_, err := disputes.Open(booking.ID, outsider.ID, models.DisputeNoShow, "text")
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("requires a description", func(t *testing.T) {
		_, err := disputes.Open(booking.ID, seeker.ID, models.DisputeNoShow, "")
		assert.True(t, IsValidation(err))
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := disputes.Open(99999, seeker.ID, models.DisputeNoShow, "text")
		assert.True(t, IsNotFound(err))
	})
}

func TestDisputeAssign(t *testing.T) {
	db := setupTestDB(t)
	disputes := NewDisputeService(db, NewLedgerService(db))

	seeker := createUser(t, db, models.RoleSeeker, 1000)
	provider := createProvider(t, db, 100)
	manager := createUser(t, db, models.RoleManager, 0)
	booking := createBooking(t, db, seeker.ID, provider.ID, models.BookingCompleted, 260)

	dispute, err := disputes.Open(booking.ID, seeker.ID, models.DisputePayment, "charged twice")
	require.NoError(t, err)

	t.Run("assignment moves to investigating", func(t *testing.T) {
		assigned, err := disputes.Assign(dispute.ID, manager.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DisputeInvestigating, assigned.Status)
		require.NotNil(t, assigned.AssignedManager)
		assert.Equal(t, manager.ID, *assigned.AssignedManager)
	})

	t.Run("non-staff cannot be assigned", func(t *testing.T) {
		_, err := disputes.Assign(dispute.ID, seeker.ID)
		assert.True(t, IsValidation(err))
	})
}

func TestDisputeResolve(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	disputes := NewDisputeService(db, ledger)

	manager := createUser(t, db, models.RoleManager, 0)
	admin := createUser(t, db, models.RoleAdmin, 0)

	open := func(t *testing.T) (*models.Dispute, *models.User) {
		seeker := createUser(t, db, models.RoleSeeker, 100)
		provider := createProvider(t, db, 100)
		booking := createBooking(t, db, seeker.ID, provider.ID, models.BookingCompleted, 260)
		dispute, err := disputes.Open(booking.ID, seeker.ID, models.DisputeServiceQuality, "incomplete service")
		require.NoError(t, err)
		return dispute, seeker
	}

	t.Run("assigned manager resolves with a credit", func(t *testing.T) {
		dispute, seeker := open(t)
		_, err := disputes.Assign(dispute.ID, manager.ID)
		require.NoError(t, err)

		resolved, err := disputes.Resolve(dispute.ID, manager.ID, models.RoleManager, "partial credit issued", 150)
		require.NoError(t, err)
		assert.Equal(t, models.DisputeResolved, resolved.Status)
		assert.NotNil(t, resolved.ResolvedAt)

		account := accountFor(t, db, seeker.ID)
		assert.Equal(t, int64(250), account.Balance)
		assert.Equal(t, int64(0), account.EscrowBalance)

		entries, err := ledger.History(seeker.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryRefund, entries[0].Kind)
		assert.Equal(t, int64(150), entries[0].Amount)
		assert.Equal(t, int64(0), entries[0].EscrowAmount)
	})

	t.Run("zero amount resolves without touching the ledger", func(t *testing.T) {
		dispute, seeker := open(t)
		_, err := disputes.Assign(dispute.ID, manager.ID)
		require.NoError(t, err)

		_, err = disputes.Resolve(dispute.ID, manager.ID, models.RoleManager, "no fault found", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(100), accountFor(t, db, seeker.ID).Balance)
	})

	t.Run("admin can resolve without assignment", func(t *testing.T) {
		dispute, _ := open(t)
		resolved, err := disputes.Resolve(dispute.ID, admin.ID, models.RoleAdmin, "handled directly", 0)
		require.NoError(t, err)
		assert.Equal(t, models.DisputeResolved, resolved.Status)
	})

	t.Run("unassigned manager cannot resolve", func(t *testing.T) {
		dispute, _ := open(t)
		other := createUser(t, db, models.RoleManager, 0)
		_, err := disputes.Resolve(dispute.ID, other.ID, models.RoleManager, "text", 0)
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("double resolution is rejected", func(t *testing.T) {
		dispute, _ := open(t)
		_, err := disputes.Resolve(dispute.ID, admin.ID, models.RoleAdmin, "done", 0)
		require.NoError(t, err)
		_, err = disputes.Resolve(dispute.ID, admin.ID, models.RoleAdmin, "again", 0)
		assert.True(t, IsValidation(err))
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		dispute, _ := open(t)
		_, err := disputes.Resolve(dispute.ID, admin.ID, models.RoleAdmin, "text", -10)
		assert.True(t, IsValidation(err))
	})

	t.Run("booking status stays untouched", func(t *testing.T) {
		seeker := createUser(t, db, models.RoleSeeker, 100)
		provider := createProvider(t, db, 100)
		booking := createBooking(t, db, seeker.ID, provider.ID, models.BookingInProgress, 260)
		dispute, err := disputes.Open(booking.ID, seeker.ID, models.DisputeBehavior, "complaint")
		require.NoError(t, err)
		_, err = disputes.Resolve(dispute.ID, admin.ID, models.RoleAdmin, "warning issued", 0)
		require.NoError(t, err)

		var after models.Booking
		require.NoError(t, db.First(&after, "id = ?", booking.ID).Error)
		assert.Equal(t, models.BookingInProgress, after.Status)
	})
}

func TestDisputeListing(t *testing.T) {
	db := setupTestDB(t)
	disputes := NewDisputeService(db, NewLedgerService(db))

	seeker := createUser(t, db, models.RoleSeeker, 100)
	provider := createProvider(t, db, 100)
	admin := createUser(t, db, models.RoleAdmin, 0)

	for i := 0; i < 3; i++ {
		booking := createBooking(t, db, seeker.ID, provider.ID, models.BookingCompleted, 100)
		_, err := disputes.Open(booking.ID, seeker.ID, models.DisputeNoShow, "no show")
		require.NoError(t, err)
	}
	booking := createBooking(t, db, seeker.ID, provider.ID, models.BookingCompleted, 100)
	resolvedDispute, err := disputes.Open(booking.ID, provider.ID, models.DisputeBehavior, "abuse")
	require.NoError(t, err)
	_, err = disputes.Resolve(resolvedDispute.ID, admin.ID, models.RoleAdmin, "closed", 0)
	require.NoError(t, err)

	all, err := disputes.List(nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	openStatus := models.DisputeOpen
	onlyOpen, err := disputes.List(&openStatus, 10, 0)
	require.NoError(t, err)
	assert.Len(t, onlyOpen, 3)

	mine, err := disputes.MyDisputes(provider.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
