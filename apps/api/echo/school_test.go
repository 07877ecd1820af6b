package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
)

var errPermissionDenied = httpErr{Error: "permission denied"}

func Test_schoolApi_sections(t *testing.T) {
	env := newTestEnv(t)

	admin := env.createUser(t, "admin", "admin@test.cd", user.RoleAdmin, "s3cretpwd")
	student := env.createUser(t, "alice", "alice@test.cd", user.RoleStudent, "s3cretpwd")
	adminToken := env.getToken(t, admin)
	studentToken := env.getToken(t, student)

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/accounts/sections")
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("empty list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/sections", studentToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("create requires admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/sections", studentToken, []byte(`{"name":"1A"}`))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}, rec)
	})

	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/sections", adminToken, []byte(`{"name":"1A"}`))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var sec school.Section
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sec))
		assert.NotEmpty(t, sec.ID)
		assert.Equal(t, "1A", sec.Name)
	})

	t.Run("duplicate name", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/sections", adminToken, []byte(`{"name":"1A"}`))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("missing name", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/sections", adminToken, []byte(`{}`))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		}, rec)
	})

	t.Run("list is readable by any role", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/sections", studentToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var secs []school.Section
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &secs))
		require.Len(t, secs, 1)
	})

	t.Run("delete requires admin", func(t *testing.T) {
		sec := env.createSection(t, "1B")
		req, rec := newAuthRequest(http.MethodDelete, "/v1/accounts/sections/"+sec.ID, studentToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}, rec)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/accounts/sections/"+sec.ID, adminToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("delete unknown id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/accounts/sections/b330e8ef-6351-4e29-b60b-1c4af8a9e6ab", adminToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: school.ErrSectionNotFound.Error()}),
		}, rec)
	})
}

func Test_schoolApi_subjects(t *testing.T) {
	env := newTestEnv(t)

	admin := env.createUser(t, "admin", "admin@test.cd", user.RoleAdmin, "s3cretpwd")
	teacher := env.createUser(t, "mrteach", "mrteach@test.cd", user.RoleTeacher, "s3cretpwd")
	adminToken := env.getToken(t, admin)

	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/subjects", adminToken, []byte(`{"subject_name":"Mathematics"}`))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var sub school.Subject
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
		assert.Equal(t, "Mathematics", sub.Name)
	})

	t.Run("create requires admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/subjects", env.getToken(t, teacher), []byte(`{"subject_name":"Science"}`))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}, rec)
	})

	t.Run("duplicate name", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/subjects", adminToken, []byte(`{"subject_name":"Mathematics"}`))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/subjects", env.getToken(t, teacher))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var subs []school.Subject
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
		require.Len(t, subs, 1)
	})
}

func Test_schoolApi_offerings(t *testing.T) {
	env := newTestEnv(t)

	admin := env.createUser(t, "admin", "admin@test.cd", user.RoleAdmin, "s3cretpwd")
	teacher := env.createUser(t, "mrteach", "mrteach@test.cd", user.RoleTeacher, "s3cretpwd")
	student := env.createUser(t, "alice", "alice@test.cd", user.RoleStudent, "s3cretpwd")
	adminToken := env.getToken(t, admin)

	sec := env.createSection(t, "1A")
	sub := env.createSubject(t, "Mathematics")

	t.Run("create requires admin", func(t *testing.T) {
		body := marchallObj(t, school.NewOffering{SubjectID: sub.ID, SectionID: sec.ID, TeacherID: teacher.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/teacher-subjects", env.getToken(t, teacher), body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}, rec)
	})

	t.Run("teacher reference must hold the teacher role", func(t *testing.T) {
		body := marchallObj(t, school.NewOffering{SubjectID: sub.ID, SectionID: sec.ID, TeacherID: student.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/teacher-subjects", adminToken, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"teacher": school.ErrNotATeacher.Error()}),
		}, rec)
	})

	t.Run("unknown subject", func(t *testing.T) {
		body := marchallObj(t, school.NewOffering{
			SubjectID: "b330e8ef-6351-4e29-b60b-1c4af8a9e6ab",
			SectionID: sec.ID,
			TeacherID: teacher.ID,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/teacher-subjects", adminToken, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: school.ErrSubjectNotFound.Error()}),
		}, rec)
	})

	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, school.NewOffering{
			SubjectID: sub.ID,
			SectionID: sec.ID,
			TeacherID: teacher.ID,
			TimeOfDay: "08:00",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/teacher-subjects", adminToken, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("list carries display names", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/teacher-subjects", env.getToken(t, student))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var offs []school.OfferingDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offs))
		require.Len(t, offs, 1)
		assert.Equal(t, "Mathematics", offs[0].SubjectName)
		assert.Equal(t, "1A", offs[0].SectionName)
		assert.Equal(t, "mrteach", offs[0].TeacherName)
	})

	t.Run("delete", func(t *testing.T) {
		off := env.createOffering(t, sub, sec, teacher)
		req, rec := newAuthRequest(http.MethodDelete, "/v1/accounts/teacher-subjects/"+off.ID, adminToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func Test_schoolApi_enrollments(t *testing.T) {
	env := newTestEnv(t)

	teacher := env.createUser(t, "mrteach", "mrteach@test.cd", user.RoleTeacher, "s3cretpwd")
	alice := env.createUser(t, "alice", "alice@test.cd", user.RoleStudent, "s3cretpwd")
	bob := env.createUser(t, "bob", "bob@test.cd", user.RoleStudent, "s3cretpwd")
	token := env.getToken(t, alice)

	math := env.createSubject(t, "Mathematics")
	science := env.createSubject(t, "Science")

	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, school.NewEnrollment{StudentID: alice.ID, SubjectID: math.ID, DisplayName: "Maths"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/student-subjects", token, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var enr school.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enr))
		assert.Equal(t, "Maths", enr.DisplayName)
	})

	t.Run("duplicate (student, subject) pair", func(t *testing.T) {
		body := marchallObj(t, school.NewEnrollment{StudentID: alice.ID, SubjectID: math.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/student-subjects", token, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"subject": school.ErrEnrollmentExists.Error()}),
		}, rec)
	})

	t.Run("student reference must hold the student role", func(t *testing.T) {
		body := marchallObj(t, school.NewEnrollment{StudentID: teacher.ID, SubjectID: math.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/student-subjects", token, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student": school.ErrNotAStudent.Error()}),
		}, rec)
	})

	t.Run("same subject for another student is fine", func(t *testing.T) {
		body := marchallObj(t, school.NewEnrollment{StudentID: bob.ID, SubjectID: math.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/student-subjects", token, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("list filtered by student", func(t *testing.T) {
		env.createEnrollment(t, alice, science)

		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/student-subjects?student="+alice.ID, token)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var enrs []school.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enrs))
		require.Len(t, enrs, 2)
		for _, enr := range enrs {
			assert.Equal(t, alice.ID, enr.StudentID)
		}
	})

	t.Run("unfiltered list returns everything", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/student-subjects", token)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var enrs []school.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enrs))
		require.Len(t, enrs, 3)
	})

	t.Run("rename", func(t *testing.T) {
		enr := env.createEnrollment(t, bob, science)

		req, rec := newAuthRequest(http.MethodPut, "/v1/accounts/student-subjects/"+enr.ID, token, []byte(`{"display_name":"Sciences"}`))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated school.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Sciences", updated.DisplayName)
		assert.Equal(t, enr.StudentID, updated.StudentID)
	})

	t.Run("delete", func(t *testing.T) {
		enr := env.createEnrollment(t, alice, env.createSubject(t, "History"))

		req, rec := newAuthRequest(http.MethodDelete, "/v1/accounts/student-subjects/"+enr.ID, token)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/accounts/student-subjects/"+enr.ID, token)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: school.ErrEnrollmentNotFound.Error()}),
		}, rec)
	})
}
