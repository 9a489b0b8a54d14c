package services

import (
	"errors"
	"log"
	"time"

	"github.com/velora/tokenmarket/models"
	"gorm.io/gorm"
)

const (
	// loadWatermark is the open-assignment count at or below which an
	// employee is immediately eligible for new work.
	loadWatermark = 2
	// pointerTTL bounds how long a rotation pointer stays fresh.
	pointerTTL = time.Hour
)

// AssignmentService routes human-monitoring work to staff with a
// round-robin that prefers lightly loaded employees. The rotation pointer
// is a soft load-balancing aid: two concurrent callers may occasionally
// pick the same least-loaded candidate, which is harmless.
type AssignmentService struct {
	db       *gorm.DB
	pointers PointerStore
}

func NewAssignmentService(db *gorm.DB, pointers PointerStore) *AssignmentService {
	return &AssignmentService{db: db, pointers: pointers}
}

func (s *AssignmentService) availableEmployees() ([]uint, error) {
	var ids []uint
	err := s.db.Model(&models.User{}).
		Where("role = ? AND is_active = ? AND verification_status = ?",
			models.RoleEmployee, true, models.VerificationVerified).
		Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (s *AssignmentService) openAssignmentCount(employeeID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Assignment{}).
		Where("employee_id = ? AND status IN ?", employeeID,
			[]models.AssignmentStatus{models.AssignmentAssigned, models.AssignmentInProgress}).
		Count(&count).Error
	return count, err
}

// NextEmployee picks the employee for a new assignment of the given type.
// Returns 0 when no candidate exists; the triggering work proceeds
// unassigned.
func (s *AssignmentService) NextEmployee(itemType models.AssignmentType) (uint, error) {
	candidates, err := s.availableEmployees()
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	pointerKey := "assignment_rr_" + string(itemType)

	// Rotate to start one past the last assigned employee. A pointer at a
	// departed employee self-heals: the scan just starts from the top.
	start := 0
	lastAssigned, ok, err := s.pointers.LastAssigned(pointerKey)
	if err != nil {
		log.Printf("[ASSIGNMENT] pointer store read failed: %v", err)
	} else if ok {
		for i, id := range candidates {
			if id == lastAssigned {
				start = (i + 1) % len(candidates)
				break
			}
		}
	}

	var best uint
	bestLoad := int64(-1)
	for i := range candidates {
		employeeID := candidates[(start+i)%len(candidates)]
		load, err := s.openAssignmentCount(employeeID)
		if err != nil {
			return 0, err
		}
		if bestLoad < 0 || load < bestLoad {
			best = employeeID
			bestLoad = load
		}
		if load <= loadWatermark {
			best = employeeID
			break
		}
	}

	if err := s.pointers.SetLastAssigned(pointerKey, best, pointerTTL); err != nil {
		log.Printf("[ASSIGNMENT] pointer store write failed: %v", err)
	}
	return best, nil
}

func (s *AssignmentService) assign(itemID uint, itemType models.AssignmentType) (uint, []Warning, error) {
	employeeID, err := s.NextEmployee(itemType)
	if err != nil {
		return 0, nil, err
	}
	if employeeID == 0 {
		return 0, []Warning{{Code: WarnAssignmentUnavailable, Message: "no employee available for assignment"}}, nil
	}

	assignment := models.Assignment{
		ItemID:     itemID,
		ItemType:   itemType,
		EmployeeID: employeeID,
		Status:     models.AssignmentAssigned,
		AssignedAt: time.Now(),
	}
	if err := s.db.Create(&assignment).Error; err != nil {
		return 0, nil, err
	}
	return employeeID, nil, nil
}

// AssignBooking routes monitoring of a new booking to an employee and
// stamps the booking with the pick.
func (s *AssignmentService) AssignBooking(bookingID uint) (uint, []Warning, error) {
	employeeID, warnings, err := s.assign(bookingID, models.AssignmentBooking)
	if err != nil || employeeID == 0 {
		return employeeID, warnings, err
	}
	err = s.db.Model(&models.Booking{}).Where("id = ?", bookingID).
		Update("assigned_employee", employeeID).Error
	return employeeID, warnings, err
}

// AssignVerification routes a user-verification review to an employee.
func (s *AssignmentService) AssignVerification(userID uint) (uint, []Warning, error) {
	return s.assign(userID, models.AssignmentVerification)
}

// Complete marks the employee's own assignment as done.
func (s *AssignmentService) Complete(assignmentID, employeeID uint) error {
	now := time.Now()
	result := s.db.Model(&models.Assignment{}).
		Where("id = ? AND employee_id = ?", assignmentID, employeeID).
		Updates(map[string]interface{}{
			"status":       models.AssignmentCompleted,
			"completed_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NotFoundError{Resource: "assignment"}
	}
	return nil
}

// Reassign is the manager override: hand the work to a specific employee,
// reset it to assigned and record why.
func (s *AssignmentService) Reassign(assignmentID, newEmployeeID uint, reason string) error {
	if reason == "" {
		return ValidationError{Msg: "reassignment reason is required"}
	}

	var assignment models.Assignment
	if err := s.db.First(&assignment, "id = ?", assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundError{Resource: "assignment"}
		}
		return err
	}

	var employee models.User
	err := s.db.Where("id = ? AND role = ? AND is_active = ?",
		newEmployeeID, models.RoleEmployee, true).First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError{Resource: "employee"}
	}
	if err != nil {
		return err
	}

	oldEmployeeID := assignment.EmployeeID
	err = s.db.Model(&models.Assignment{}).Where("id = ?", assignmentID).
		Updates(map[string]interface{}{
			"employee_id":     newEmployeeID,
			"status":          models.AssignmentAssigned,
			"reassign_reason": reason,
		}).Error
	if err != nil {
		return err
	}
	log.Printf("[ASSIGNMENT] reassigned %d from employee %d to %d: %s",
		assignmentID, oldEmployeeID, newEmployeeID, reason)
	return nil
}

// EmployeeAssignments lists an employee's open work, oldest first.
func (s *AssignmentService) EmployeeAssignments(employeeID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := s.db.Where("employee_id = ? AND status IN ?", employeeID,
		[]models.AssignmentStatus{models.AssignmentAssigned, models.AssignmentInProgress}).
		Order("assigned_at asc").Find(&assignments).Error
	return assignments, err
}

type AssignmentStatistics struct {
	ByTypeAndStatus map[models.AssignmentType]map[models.AssignmentStatus]int64 `json:"by_type_and_status"`
	EmployeeLoad    map[uint]int64                                              `json:"employee_load"`
	TotalOpen       int64                                                       `json:"total_open"`
}

// Statistics summarizes assignment distribution for the admin dashboard.
func (s *AssignmentService) Statistics() (*AssignmentStatistics, error) {
	stats := &AssignmentStatistics{
		ByTypeAndStatus: make(map[models.AssignmentType]map[models.AssignmentStatus]int64),
		EmployeeLoad:    make(map[uint]int64),
	}

	var rows []struct {
		ItemType models.AssignmentType
		Status   models.AssignmentStatus
		Count    int64
	}
	err := s.db.Model(&models.Assignment{}).
		Select("item_type, status, count(*) as count").
		Group("item_type").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if stats.ByTypeAndStatus[row.ItemType] == nil {
			stats.ByTypeAndStatus[row.ItemType] = make(map[models.AssignmentStatus]int64)
		}
		stats.ByTypeAndStatus[row.ItemType][row.Status] = row.Count
	}

	var loads []struct {
		EmployeeID uint
		Count      int64
	}
	err = s.db.Model(&models.Assignment{}).
		Select("employee_id, count(*) as count").
		Where("status IN ?", []models.AssignmentStatus{models.AssignmentAssigned, models.AssignmentInProgress}).
		Group("employee_id").Scan(&loads).Error
	if err != nil {
		return nil, err
	}
	for _, row := range loads {
		stats.EmployeeLoad[row.EmployeeID] = row.Count
		stats.TotalOpen += row.Count
	}
	return stats, nil
}
