package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shulehub/shule/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.attendance.Lock()
	defer repo.db.attendance.Unlock()

	now := time.Now().UTC()
	for _, existing := range repo.db.attendance.table {
		if existing.StudentID == att.StudentID &&
			existing.OfferingID == att.OfferingID &&
			existing.Date.Equal(att.Date.Time) {
			existing.SectionID = att.SectionID
			existing.Status = att.Status
			existing.RecordedBy = att.RecordedBy
			existing.UpdatedAt = now
			return *existing, nil
		}
	}

	att.ID = uuid.New().String()
	att.CreatedAt = now
	att.UpdatedAt = now
	repo.db.attendance.table[att.ID] = &att
	return att, nil
}

func (repo *attendanceRepository) QueryAttendanceByTeacher(ctx context.Context, teacherID string) ([]attendance.Attendance, error) {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()
	repo.db.offering.RLock()
	defer repo.db.offering.RUnlock()

	taught := make(map[string]bool)
	for id, off := range repo.db.offering.table {
		if off.TeacherID == teacherID {
			taught[id] = true
		}
	}

	var atts []attendance.Attendance
	for _, att := range repo.db.attendance.table {
		if taught[att.OfferingID] {
			atts = append(atts, *att)
		}
	}
	sort.Slice(atts, func(i, j int) bool { return atts[i].Date.After(atts[j].Date.Time) })
	return atts, nil
}
