package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/attendance"
	"github.com/shulehub/shule/core/product"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
	emailsvc "github.com/shulehub/shule/services/email"
	dummydb "github.com/shulehub/shule/storage/database/dummy"
	"github.com/shulehub/shule/storage/redisdb"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	conf          *core.Config
	server        *Server
	auth          *authenticator
	usrSvc        user.Service
	schoolSvc     school.Service
	attendanceSvc attendance.Service
	productSvc    product.Service
	blacklist     core.TokenBlacklist
}

type testLogger struct {
	std *log.Logger
}

func (l testLogger) Enable(bool)                        {}
func (l testLogger) Debug(msg string, _ ...interface{}) { l.std.Println(msg) }
func (l testLogger) Info(msg string, _ ...interface{})  { l.std.Println(msg) }
func (l testLogger) Warn(msg string, _ ...interface{})  { l.std.Println(msg) }
func (l testLogger) Error(msg string, _ ...interface{}) { l.std.Println(msg) }
func (l testLogger) Fatal(msg string, _ ...interface{}) { l.std.Fatalln(msg) }

func newTestConfig(t *testing.T) *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Shule",
		SecretKey: "secret",
		MediaRoot: t.TempDir(),
		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      "8000",
			JWTAccessExpirationDelta:  5 * time.Minute,
			JWTRefreshExpirationDelta: 7 * 24 * time.Hour,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	conf := newTestConfig(t)

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}

	logger := testLogger{std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	blacklist := redisdb.NewInMemoryBlacklist()

	usrSvc := user.NewServiceMock(dummydb.NewUserRepository(db), mailSvc, conf)
	schoolSvc := school.NewService(dummydb.NewSchoolRepository(db), usrSvc)
	attendanceSvc := attendance.NewService(dummydb.NewAttendanceRepository(db), schoolSvc, usrSvc)
	productSvc := product.NewService(dummydb.NewProductRepository(db))

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	product.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		SchoolSvc:     schoolSvc,
		AttendanceSvc: attendanceSvc,
		ProductSvc:    productSvc,
		Blacklist:     blacklist,
	})

	return &testEnv{
		conf:   conf,
		server: server,
		auth: &authenticator{
			conf:      conf,
			usrSvc:    usrSvc,
			blacklist: blacklist,
			logger:    logger,
		},
		usrSvc:        usrSvc,
		schoolSvc:     schoolSvc,
		attendanceSvc: attendanceSvc,
		productSvc:    productSvc,
		blacklist:     blacklist,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	claims := env.auth.getUserClaims(usr, accessTokenType, env.conf.Server.JWTAccessExpirationDelta)
	token, err := env.auth.generateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func (env *testEnv) getRefreshToken(t *testing.T, usr user.User) string {
	claims := env.auth.getUserClaims(usr, refreshTokenType, env.conf.Server.JWTRefreshExpirationDelta)
	token, err := env.auth.generateToken(claims)
	if err != nil {
		t.Fatalf("getRefreshToken(): %v", err)
	}
	return token
}

// seed helpers

func (env *testEnv) createUser(t *testing.T, uname, email string, role user.Role, pwd string) user.User {
	usr, err := env.usrSvc.Register(context.Background(), user.NewUser{
		Email:     email,
		Username:  uname,
		Password1: pwd,
		Password2: pwd,
		Role:      role,
	})
	if err != nil {
		t.Fatalf("createUser(%s): %v", uname, err)
	}
	return usr
}

func (env *testEnv) createSection(t *testing.T, name string) school.Section {
	sec, err := env.schoolSvc.CreateSection(context.Background(), school.NewSection{Name: name})
	if err != nil {
		t.Fatalf("createSection(%s): %v", name, err)
	}
	return sec
}

func (env *testEnv) createSubject(t *testing.T, name string) school.Subject {
	sub, err := env.schoolSvc.CreateSubject(context.Background(), school.NewSubject{Name: name})
	if err != nil {
		t.Fatalf("createSubject(%s): %v", name, err)
	}
	return sub
}

func (env *testEnv) createOffering(t *testing.T, sub school.Subject, sec school.Section, teacher user.User) school.Offering {
	off, err := env.schoolSvc.CreateOffering(context.Background(), school.NewOffering{
		SubjectID: sub.ID,
		SectionID: sec.ID,
		TeacherID: teacher.ID,
	})
	if err != nil {
		t.Fatalf("createOffering(%s): %v", sub.Name, err)
	}
	return off
}

func (env *testEnv) createEnrollment(t *testing.T, student user.User, sub school.Subject) school.Enrollment {
	enr, err := env.schoolSvc.CreateEnrollment(context.Background(), school.NewEnrollment{
		StudentID: student.ID,
		SubjectID: sub.ID,
	})
	if err != nil {
		t.Fatalf("createEnrollment(%s): %v", student.Username, err)
	}
	return enr
}

func (env *testEnv) createProduct(t *testing.T, name, price string, category product.Category) product.Product {
	prd, err := env.productSvc.Create(context.Background(), product.NewProduct{
		Name:     name,
		Price:    price,
		Category: category,
	})
	if err != nil {
		t.Fatalf("createProduct(%s): %v", name, err)
	}
	return prd
}

func mustDate(t *testing.T, s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("mustDate(%s): %v", s, err)
	}
	return d
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	res := http.Response{Header: rec.Header()}
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
