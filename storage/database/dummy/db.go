package dummydb

import (
	"sync"

	"github.com/shulehub/shule/core/attendance"
	"github.com/shulehub/shule/core/product"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
)

type (
	DB struct {
		user       *userTable
		profile    *profileTable
		section    *sectionTable
		subject    *subjectTable
		offering   *offeringTable
		enrollment *enrollmentTable
		attendance *attendanceTable
		product    *productTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
	profileTable struct {
		sync.RWMutex
		table map[string]*user.Profile // keyed by user ID
	}
	sectionTable struct {
		sync.RWMutex
		table map[string]*school.Section
	}
	subjectTable struct {
		sync.RWMutex
		table map[string]*school.Subject
	}
	offeringTable struct {
		sync.RWMutex
		table map[string]*school.Offering
	}
	enrollmentTable struct {
		sync.RWMutex
		table map[string]*school.Enrollment
	}
	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Attendance
	}
	productTable struct {
		sync.RWMutex
		table map[string]*product.Product
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		profile:    &profileTable{table: make(map[string]*user.Profile)},
		section:    &sectionTable{table: make(map[string]*school.Section)},
		subject:    &subjectTable{table: make(map[string]*school.Subject)},
		offering:   &offeringTable{table: make(map[string]*school.Offering)},
		enrollment: &enrollmentTable{table: make(map[string]*school.Enrollment)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Attendance)},
		product:    &productTable{table: make(map[string]*product.Product)},
	}
	return db, nil
}
