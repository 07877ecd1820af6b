package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulehub/shule/core/user"
)

func Test_userApi_register(t *testing.T) {
	env := newTestEnv(t)

	tests := []httpTest{
		{
			name:     "missing fields",
			body:     []byte(`{"password1":"s3cretpwd","password2":"s3cretpwd"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":    "this field is required",
				"username": "this field is required",
			}),
		},
		{
			name:     "password mismatch",
			body:     []byte(`{"email":"jane@test.cd","username":"jane","password1":"s3cretpwd","password2":"nope"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "password too short",
			body:     []byte(`{"email":"jane@test.cd","username":"jane","password1":"a","password2":"a"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "password too similar to username",
			body:     []byte(`{"email":"jane@test.cd","username":"janedoe","password1":"janedoe","password2":"janedoe"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid role",
			body:     []byte(`{"email":"jane@test.cd","username":"jane","password1":"s3cretpwd","password2":"s3cretpwd","role":"boss"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "ok, role defaults to student",
			body:     []byte(`{"email":"jane@test.cd","username":"jane","password1":"s3cretpwd","password2":"s3cretpwd"}`),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate email",
			body:     []byte(`{"email":"jane@test.cd","username":"jane2","password1":"s3cretpwd","password2":"s3cretpwd"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name:     "duplicate username",
			body:     []byte(`{"email":"jane2@test.cd","username":"jane","password1":"s3cretpwd","password2":"s3cretpwd"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name:     "ok, teacher role kept",
			body:     []byte(`{"email":"mr@test.cd","username":"mrteach","password1":"s3cretpwd","password2":"s3cretpwd","role":"teacher"}`),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/accounts/register", tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if rec.Code == http.StatusCreated {
				assert.NotNil(t, findCookie(rec, accessTokenCookie))
				assert.NotNil(t, findCookie(rec, refreshTokenCookie))
			}
		})
	}

	// registered role survives the round trip
	usr, err := env.usrSvc.GetByEmail(context.Background(), "mr@test.cd")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, usr.Role)

	usr, err = env.usrSvc.GetByEmail(context.Background(), "jane@test.cd")
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, usr.Role)
}

func Test_userApi_login(t *testing.T) {
	env := newTestEnv(t)

	env.createUser(t, "jane", "jane@test.cd", user.RoleStudent, "s3cretpwd")

	tests := []httpTest{
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown email",
			body:     []byte(`{"email":"who@test.cd","password":"s3cretpwd"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "incorrect credentials"}),
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email":"jane@test.cd","password":"nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "incorrect credentials"}),
		},
		{
			name:     "ok",
			body:     []byte(`{"email":"jane@test.cd","password":"s3cretpwd"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "ok, email case-insensitive",
			body:     []byte(`{"email":"JANE@test.cd","password":"s3cretpwd"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/accounts/login", tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if rec.Code == http.StatusOK {
				assert.NotNil(t, findCookie(rec, accessTokenCookie))
				assert.NotNil(t, findCookie(rec, refreshTokenCookie))
			}
		})
	}

	// LastLogin was set
	usr, err := env.usrSvc.GetByEmail(context.Background(), "jane@test.cd")
	require.NoError(t, err)
	assert.False(t, usr.LastLogin.IsZero())
}

func Test_userApi_retrieve(t *testing.T) {
	env := newTestEnv(t)

	jane := env.createUser(t, "jane", "jane@test.cd", user.RoleTeacher, "s3cretpwd")

	tests := []httpTest{
		{
			name:     "auth required",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "ok",
			token:    env.getToken(t, jane),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, jane.Public()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/user", tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	env := newTestEnv(t)

	jane := env.createUser(t, "jane", "jane@test.cd", user.RoleStudent, "s3cretpwd")

	t.Run("missing cookie", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/accounts/refresh")
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("garbage cookie", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/accounts/refresh")
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "lol"})
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/accounts/refresh")
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: env.getToken(t, jane)})
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/accounts/refresh")
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: env.getRefreshToken(t, jane)})
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotNil(t, findCookie(rec, accessTokenCookie))
	})

	t.Run("blacklisted cookie", func(t *testing.T) {
		refresh := env.getRefreshToken(t, jane)
		claims, err := env.auth.parseToken(refresh)
		require.NoError(t, err)
		require.NoError(t, env.blacklist.Blacklist(context.Background(), claims.Id, env.conf.Server.JWTRefreshExpirationDelta))

		req, rec := newRequest(http.MethodPost, "/v1/accounts/refresh")
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: refresh})
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("deleted user", func(t *testing.T) {
		refresh := env.getRefreshToken(t, jane)
		require.NoError(t, env.usrSvc.Delete(context.Background(), jane.ID))

		req, rec := newRequest(http.MethodPost, "/v1/accounts/refresh")
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: refresh})
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})
}

func Test_userApi_logout(t *testing.T) {
	env := newTestEnv(t)

	jane := env.createUser(t, "jane", "jane@test.cd", user.RoleStudent, "s3cretpwd")
	refresh := env.getRefreshToken(t, jane)

	req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/logout", env.getToken(t, jane))
	req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: refresh})
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusResetContent, rec.Code, rec.Body.String())

	// both cookies cleared
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		c := findCookie(rec, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}

	// refresh token is now revoked
	claims, err := env.auth.parseToken(refresh)
	require.NoError(t, err)
	blacklisted, err := env.blacklist.IsBlacklisted(context.Background(), claims.Id)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// a second logout without cookies still succeeds
	req, rec = newAuthRequest(http.MethodPost, "/v1/accounts/logout", env.getToken(t, jane))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusResetContent, rec.Code)
}

func Test_userApi_update(t *testing.T) {
	env := newTestEnv(t)

	jane := env.createUser(t, "jane", "jane@test.cd", user.RoleStudent, "s3cretpwd")
	env.createUser(t, "john", "john@test.cd", user.RoleStudent, "s3cretpwd")

	tests := []httpTest{
		{
			name:     "auth required",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "taken email rejected",
			token:    env.getToken(t, jane),
			body:     []byte(`{"email":"john@test.cd"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name:     "own email kept",
			token:    env.getToken(t, jane),
			body:     []byte(`{"email":"jane@test.cd","username":"janedoe"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "partial update",
			token:    env.getToken(t, jane),
			body:     []byte(`{"email":"jane.doe@test.cd"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPatch, "/v1/accounts/profile/update", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	usr, err := env.usrSvc.GetByID(context.Background(), jane.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@test.cd", usr.Email)
	assert.Equal(t, "janedoe", usr.Username)
}

func Test_userApi_profile(t *testing.T) {
	env := newTestEnv(t)

	jane := env.createUser(t, "jane", "jane@test.cd", user.RoleStudent, "s3cretpwd")
	sec := env.createSection(t, "1A")
	token := env.getToken(t, jane)

	t.Run("get before create is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/profile", token)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	})

	t.Run("create", func(t *testing.T) {
		body := []byte(`{"bio":"hi there","birth_date":"2008-01-15","location":"Goma","section":"` + sec.ID + `"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/profile", token, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("second create is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/profile", token, []byte(`{"bio":"again"}`))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("partial update keeps stored values", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/accounts/profile", token, []byte(`{"location":"Bukavu"}`))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		prof, err := env.usrSvc.GetProfile(context.Background(), jane.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bukavu", prof.Location)
		assert.Equal(t, "hi there", prof.Bio)
		assert.Equal(t, "2008-01-15", prof.BirthDate.String())
		assert.Equal(t, sec.ID, prof.SectionID)
	})

	t.Run("invalid section id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/accounts/profile", token, []byte(`{"section":"nope"}`))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})
}
