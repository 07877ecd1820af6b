package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/shulehub/shule/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) QuerySections(ctx context.Context) ([]school.Section, error) {
	repo.db.section.RLock()
	defer repo.db.section.RUnlock()

	secs := make([]school.Section, 0, len(repo.db.section.table))
	for _, s := range repo.db.section.table {
		secs = append(secs, *s)
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i].Name < secs[j].Name })
	return secs, nil
}

func (repo *schoolRepository) GetSectionByID(ctx context.Context, id string) (school.Section, error) {
	repo.db.section.RLock()
	defer repo.db.section.RUnlock()

	if sec, ok := repo.db.section.table[id]; ok {
		return *sec, nil
	}
	return school.Section{}, school.ErrSectionNotFound
}

func (repo *schoolRepository) CreateSection(ctx context.Context, sec school.Section) (school.Section, error) {
	repo.db.section.Lock()
	defer repo.db.section.Unlock()

	for _, s := range repo.db.section.table {
		if s.Name == sec.Name {
			return school.Section{}, school.ErrSectionExists
		}
	}
	sec.ID = uuid.New().String()
	repo.db.section.table[sec.ID] = &sec
	return sec, nil
}

func (repo *schoolRepository) DeleteSectionByID(ctx context.Context, id string) error {
	repo.db.section.Lock()
	defer repo.db.section.Unlock()

	if _, ok := repo.db.section.table[id]; !ok {
		return school.ErrSectionNotFound
	}
	delete(repo.db.section.table, id)
	return nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	repo.db.subject.RLock()
	defer repo.db.subject.RUnlock()

	subs := make([]school.Subject, 0, len(repo.db.subject.table))
	for _, s := range repo.db.subject.table {
		subs = append(subs, *s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs, nil
}

func (repo *schoolRepository) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	repo.db.subject.RLock()
	defer repo.db.subject.RUnlock()

	if sub, ok := repo.db.subject.table[id]; ok {
		return *sub, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo *schoolRepository) CreateSubject(ctx context.Context, sub school.Subject) (school.Subject, error) {
	repo.db.subject.Lock()
	defer repo.db.subject.Unlock()

	for _, s := range repo.db.subject.table {
		if s.Name == sub.Name {
			return school.Subject{}, school.ErrSubjectExists
		}
	}
	sub.ID = uuid.New().String()
	repo.db.subject.table[sub.ID] = &sub
	return sub, nil
}

func (repo *schoolRepository) DeleteSubjectByID(ctx context.Context, id string) error {
	repo.db.subject.Lock()
	defer repo.db.subject.Unlock()

	if _, ok := repo.db.subject.table[id]; !ok {
		return school.ErrSubjectNotFound
	}
	delete(repo.db.subject.table, id)
	return nil
}

func (repo *schoolRepository) QueryOfferings(ctx context.Context) ([]school.OfferingDetail, error) {
	repo.db.offering.RLock()
	defer repo.db.offering.RUnlock()

	offs := make([]school.OfferingDetail, 0, len(repo.db.offering.table))
	for _, off := range repo.db.offering.table {
		detail := school.OfferingDetail{Offering: *off}
		if sub, ok := repo.db.subject.table[off.SubjectID]; ok {
			detail.SubjectName = sub.Name
		}
		if sec, ok := repo.db.section.table[off.SectionID]; ok {
			detail.SectionName = sec.Name
		}
		if t, ok := repo.db.user.table[off.TeacherID]; ok {
			detail.TeacherName = t.Username
		}
		offs = append(offs, detail)
	}
	sort.Slice(offs, func(i, j int) bool { return offs[i].SubjectName < offs[j].SubjectName })
	return offs, nil
}

func (repo *schoolRepository) GetOfferingByID(ctx context.Context, id string) (school.Offering, error) {
	repo.db.offering.RLock()
	defer repo.db.offering.RUnlock()

	if off, ok := repo.db.offering.table[id]; ok {
		return *off, nil
	}
	return school.Offering{}, school.ErrOfferingNotFound
}

func (repo *schoolRepository) CreateOffering(ctx context.Context, off school.Offering) (school.Offering, error) {
	repo.db.offering.Lock()
	defer repo.db.offering.Unlock()

	off.ID = uuid.New().String()
	repo.db.offering.table[off.ID] = &off
	return off, nil
}

func (repo *schoolRepository) DeleteOfferingByID(ctx context.Context, id string) error {
	repo.db.offering.Lock()
	defer repo.db.offering.Unlock()

	if _, ok := repo.db.offering.table[id]; !ok {
		return school.ErrOfferingNotFound
	}
	delete(repo.db.offering.table, id)
	return nil
}

func (repo *schoolRepository) QueryEnrollments(ctx context.Context, studentID string) ([]school.Enrollment, error) {
	repo.db.enrollment.RLock()
	defer repo.db.enrollment.RUnlock()

	enrs := make([]school.Enrollment, 0, len(repo.db.enrollment.table))
	for _, enr := range repo.db.enrollment.table {
		if studentID != "" && enr.StudentID != studentID {
			continue
		}
		enrs = append(enrs, *enr)
	}
	return enrs, nil
}

func (repo *schoolRepository) GetEnrollmentByID(ctx context.Context, id string) (school.Enrollment, error) {
	repo.db.enrollment.RLock()
	defer repo.db.enrollment.RUnlock()

	if enr, ok := repo.db.enrollment.table[id]; ok {
		return *enr, nil
	}
	return school.Enrollment{}, school.ErrEnrollmentNotFound
}

func (repo *schoolRepository) CheckEnrollmentUniqueness(ctx context.Context, studentID, subjectID string, excluded ...school.Enrollment) error {
	repo.db.enrollment.RLock()
	defer repo.db.enrollment.RUnlock()

	excl := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		excl[e.ID] = true
	}
	for _, enr := range repo.db.enrollment.table {
		if excl[enr.ID] {
			continue
		}
		if enr.StudentID == studentID && enr.SubjectID == subjectID {
			return school.ErrEnrollmentExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateEnrollment(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	repo.db.enrollment.Lock()
	defer repo.db.enrollment.Unlock()

	enr.ID = uuid.New().String()
	repo.db.enrollment.table[enr.ID] = &enr
	return enr, nil
}

func (repo *schoolRepository) UpdateEnrollment(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	repo.db.enrollment.Lock()
	defer repo.db.enrollment.Unlock()

	if _, ok := repo.db.enrollment.table[enr.ID]; !ok {
		return school.Enrollment{}, school.ErrEnrollmentNotFound
	}
	repo.db.enrollment.table[enr.ID] = &enr
	return enr, nil
}

func (repo *schoolRepository) DeleteEnrollmentByID(ctx context.Context, id string) error {
	repo.db.enrollment.Lock()
	defer repo.db.enrollment.Unlock()

	if _, ok := repo.db.enrollment.table[id]; !ok {
		return school.ErrEnrollmentNotFound
	}
	delete(repo.db.enrollment.table, id)
	return nil
}
