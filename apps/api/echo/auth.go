package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"

	accessTokenType  = "access"
	refreshTokenType = "refresh"

	jwtContextKey  = "userToken"
	contextUserKey = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	TokenType string `json:"type,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	IsStudent bool   `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsTeacher bool   `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
	IsAdmin   bool   `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
}

type authenticator struct {
	conf      *core.Config
	usrSvc    user.Service
	blacklist core.TokenBlacklist
	logger    core.Logger
}

// jwtConfig returns the JWT auth middleware config; tokens are read from the
// access cookie.
func (a *authenticator) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(a.conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		TokenLookup:   "cookie:" + accessTokenCookie,
		Claims:        new(Claims),
	}
}

func (a *authenticator) getUserClaims(usr user.User, tokenType string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		TokenType: tokenType,
		Username:  usr.Username,
		Email:     usr.Email,
		Role:      string(usr.Role),
		IsStudent: usr.IsStudent(),
		IsTeacher: usr.IsTeacher(),
		IsAdmin:   usr.IsAdmin(),
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(a.conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) parseToken(ss string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(ss, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(a.conf.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (a *authenticator) authenticate(ctx echo.Context, email, pwd string) (user.User, error) {
	usr, err := a.usrSvc.GetByEmail(ctx.Request().Context(), email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	return usr, nil
}

// setAuthCookies issues a fresh access/refresh token pair as HTTP-only
// cookies and returns the access token.
func (a *authenticator) setAuthCookies(ctx echo.Context, usr user.User) (string, error) {
	access, err := a.generateToken(a.getUserClaims(usr, accessTokenType, a.conf.Server.JWTAccessExpirationDelta))
	if err != nil {
		return "", errors.Wrap(err, "generating access token")
	}
	refresh, err := a.generateToken(a.getUserClaims(usr, refreshTokenType, a.conf.Server.JWTRefreshExpirationDelta))
	if err != nil {
		return "", errors.Wrap(err, "generating refresh token")
	}
	a.setCookie(ctx, accessTokenCookie, access, a.conf.Server.JWTAccessExpirationDelta)
	a.setCookie(ctx, refreshTokenCookie, refresh, a.conf.Server.JWTRefreshExpirationDelta)
	return access, nil
}

func (a *authenticator) setCookie(ctx echo.Context, name, value string, ttl time.Duration) {
	ctx.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.conf.Server.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (a *authenticator) clearAuthCookies(ctx echo.Context) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		ctx.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   a.conf.Server.CookieSecure,
			SameSite: http.SameSiteNoneMode,
		})
	}
}

// refreshClaims validates the refresh cookie and returns its claims: the
// token must parse, be of the refresh type and not be blacklisted.
func (a *authenticator) refreshClaims(ctx echo.Context) (*Claims, error) {
	cookie, err := ctx.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return nil, errRefreshMissing
	}
	claims, err := a.parseToken(cookie.Value)
	if err != nil {
		return nil, errRefreshInvalid
	}
	if claims.TokenType != refreshTokenType {
		return nil, errRefreshInvalid
	}
	blacklisted, err := a.blacklist.IsBlacklisted(ctx.Request().Context(), claims.Id)
	if err != nil {
		return nil, errors.Wrap(err, "checking token blacklist")
	}
	if blacklisted {
		return nil, errRefreshInvalid
	}
	return claims, nil
}

// blacklistRefreshToken revokes the refresh cookie (if any) for the rest of
// its lifetime. Best-effort: failures are logged, never surfaced.
func (a *authenticator) blacklistRefreshToken(ctx echo.Context) {
	cookie, err := ctx.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return
	}
	claims, err := a.parseToken(cookie.Value)
	if err != nil {
		return // expired or garbage; nothing to revoke
	}
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if err := a.blacklist.Blacklist(ctx.Request().Context(), claims.Id, ttl); err != nil {
		a.logger.Error("blacklisting refresh token: "+err.Error(), err)
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}
