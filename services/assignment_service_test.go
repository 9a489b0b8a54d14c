package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora/tokenmarket/models"
	"gorm.io/gorm"
)

func createEmployees(t *testing.T, db *gorm.DB, n int) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, createUser(t, db, models.RoleEmployee, 0).ID)
	}
	return ids
}

func TestAssignmentRotation(t *testing.T) {
	db := setupTestDB(t)
	assigner := NewAssignmentService(db, NewMemoryPointerStore())

	employees := createEmployees(t, db, 3)

	t.Run("distributes work evenly", func(t *testing.T) {
		counts := make(map[uint]int)
		for i := 0; i < 5; i++ {
			employeeID, warnings, err := assigner.AssignVerification(uint(100 + i))
			require.NoError(t, err)
			require.Empty(t, warnings)
			counts[employeeID]++
		}

		min, max := 5, 0
		for _, id := range employees {
			if counts[id] < min {
				min = counts[id]
			}
			if counts[id] > max {
				max = counts[id]
			}
		}
		assert.LessOrEqual(t, max-min, 1, "load spread should stay within one assignment")
	})

	t.Run("pointer keys are independent per type", func(t *testing.T) {
		first, _, err := assigner.AssignBooking(
			createBooking(t, db, 1, 2, models.BookingPending, 100).ID)
		require.NoError(t, err)
		assert.Contains(t, employees, first)
	})
}

func TestAssignmentWatermark(t *testing.T) {
	db := setupTestDB(t)
	assigner := NewAssignmentService(db, NewMemoryPointerStore())

	employees := createEmployees(t, db, 2)
	busy, idle := employees[0], employees[1]

	// push the first employee past the watermark
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Assignment{
			ItemID:     uint(200 + i),
			ItemType:   models.AssignmentVerification,
			EmployeeID: busy,
			Status:     models.AssignmentAssigned,
			AssignedAt: time.Now(),
		}).Error)
	}

	for i := 0; i < 2; i++ {
		employeeID, _, err := assigner.AssignVerification(uint(300 + i))
		require.NoError(t, err)
		assert.Equal(t, idle, employeeID, "overloaded employee should be skipped")
	}
}

func TestAssignmentEveryoneOverloaded(t *testing.T) {
	db := setupTestDB(t)
	assigner := NewAssignmentService(db, NewMemoryPointerStore())

	employees := createEmployees(t, db, 2)
	loads := []int{4, 6}
	for i, employeeID := range employees {
		for j := 0; j < loads[i]; j++ {
			require.NoError(t, db.Create(&models.Assignment{
				ItemID:     uint(400 + i*10 + j),
				ItemType:   models.AssignmentVerification,
				EmployeeID: employeeID,
				Status:     models.AssignmentAssigned,
				AssignedAt: time.Now(),
			}).Error)
		}
	}

	employeeID, _, err := assigner.AssignVerification(500)
	require.NoError(t, err)
	assert.Equal(t, employees[0], employeeID, "least loaded employee wins when all are above the watermark")
}

func TestAssignmentNoEmployees(t *testing.T) {
	db := setupTestDB(t)
	assigner := NewAssignmentService(db, NewMemoryPointerStore())

	employeeID, warnings, err := assigner.AssignVerification(1)
	require.NoError(t, err)
	assert.Zero(t, employeeID)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnAssignmentUnavailable, warnings[0].Code)

	var count int64
	require.NoError(t, db.Model(&models.Assignment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAssignmentStalePointer(t *testing.T) {
	db := setupTestDB(t)
	pointers := NewMemoryPointerStore()
	assigner := NewAssignmentService(db, pointers)

	employees := createEmployees(t, db, 2)

	// pointer at an employee who no longer exists
	require.NoError(t, pointers.SetLastAssigned("assignment_rr_verification", 99999, time.Hour))

	employeeID, _, err := assigner.AssignVerification(1)
	require.NoError(t, err)
	assert.Equal(t, employees[0], employeeID, "scan should restart from the top")
}

func TestAssignmentBookingStamp(t *testing.T) {
	db := setupTestDB(t)
	assigner := NewAssignmentService(db, NewMemoryPointerStore())

	employee := createUser(t, db, models.RoleEmployee, 0)
	booking := createBooking(t, db, 1, 2, models.BookingPending, 100)

	employeeID, _, err := assigner.AssignBooking(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.ID, employeeID)

	var updated models.Booking
	require.NoError(t, db.First(&updated, "id = ?", booking.ID).Error)
	require.NotNil(t, updated.AssignedEmployee)
	assert.Equal(t, employee.ID, *updated.AssignedEmployee)
}

func TestAssignmentLifecycle(t *testing.T) {
	db := setupTestDB(t)
	assigner := NewAssignmentService(db, NewMemoryPointerStore())

	employees := createEmployees(t, db, 2)
	_, _, err := assigner.AssignVerification(1)
	require.NoError(t, err)

	var assignment models.Assignment
	require.NoError(t, db.First(&assignment).Error)

	t.Run("only the owner completes", func(t *testing.T) {
		err := assigner.Complete(assignment.ID, employees[1])
		assert.True(t, IsNotFound(err))
		require.NoError(t, assigner.Complete(assignment.ID, assignment.EmployeeID))

		var done models.Assignment
		require.NoError(t, db.First(&done, "id = ?", assignment.ID).Error)
		assert.Equal(t, models.AssignmentCompleted, done.Status)
		assert.NotNil(t, done.CompletedAt)
	})

	t.Run("reassign validates the target and records the reason", func(t *testing.T) {
		err := assigner.Reassign(assignment.ID, employees[1], "")
		assert.True(t, IsValidation(err))
		err = assigner.Reassign(assignment.ID, 99999, "coverage")
		assert.True(t, IsNotFound(err))

		require.NoError(t, assigner.Reassign(assignment.ID, employees[1], "coverage gap"))

		var moved models.Assignment
		require.NoError(t, db.First(&moved, "id = ?", assignment.ID).Error)
		assert.Equal(t, employees[1], moved.EmployeeID)
		assert.Equal(t, models.AssignmentAssigned, moved.Status)
		require.NotNil(t, moved.ReassignReason)
		assert.Equal(t, "coverage gap", *moved.ReassignReason)
	})
}

func TestAssignmentStatistics(t *testing.T) {
	db := setupTestDB(t)
	assigner := NewAssignmentService(db, NewMemoryPointerStore())

	employees := createEmployees(t, db, 2)
	for i := 0; i < 3; i++ {
		_, _, err := assigner.AssignVerification(uint(600 + i))
		require.NoError(t, err)
	}

	stats, err := assigner.Statistics()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOpen)
	assert.Equal(t, int64(3),
		stats.ByTypeAndStatus[models.AssignmentVerification][models.AssignmentAssigned])
	assert.Equal(t, int64(2), stats.EmployeeLoad[employees[0]])
	assert.Equal(t, int64(1), stats.EmployeeLoad[employees[1]])

	open, err := assigner.EmployeeAssignments(employees[0])
	require.NoError(t, err)
	assert.Len(t, open, 2)
}
