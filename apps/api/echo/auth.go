package echoapi

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/upstream"
)

const (
	contextTokenKey = "userToken"
	tokenAudience   = "Academia"
	tokenCookieName = "token"
)

var (
	nowFunc = time.Now // mockable

	// TokenTTL is the lifetime of the tokens minted by GenerateToken.
	TokenTTL = 1 * time.Hour
)

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued by the users service; this server only verifies them.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	IsStudent    bool     `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsTeacher    bool     `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
	IsAdmin      bool     `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
	Roles        []string `json:"roles,omitempty"`
}

// User returns the identity carried by the claims.
// A portal flag grants the base role of its portal when no role of that portal is listed.
func (c Claims) User() user.User {
	usr := user.User{
		ID:       c.Subject,
		Username: c.Username,
		Email:    c.Email,
		Roles:    append([]string(nil), c.Roles...),
	}
	for _, portal := range []struct {
		flag bool
		role string
	}{
		{c.IsAdmin, user.RoleAdmin},
		{c.IsTeacher, user.RoleTeacher},
		{c.IsStudent, user.RoleStudent},
	} {
		if portal.flag && !usr.RoleStartsWith(portal.role) {
			usr.Roles = append(usr.Roles, portal.role)
		}
	}
	return usr
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// NewClaims returns the claims the users service would issue for usr.
func NewClaims(usr user.User, conf *core.Config) *Claims {
	now := nowFunc()
	nownix := now.Unix()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(TokenTTL).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: nownix,
		Username:     usr.Username,
		Email:        usr.Email,
		IsStudent:    usr.IsStudent(),
		IsTeacher:    usr.IsTeacher(),
		IsAdmin:      usr.IsAdmin(),
		Roles:        usr.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	method := jwt.GetSigningMethod(jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextToken(ctx echo.Context) (*jwt.Token, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		return token, nil
	}
	return nil, errUnauthorized
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	token, err := getContextToken(ctx)
	if err != nil {
		return Claims{}, err
	}
	if claims, ok := token.Claims.(*Claims); ok {
		return *claims, nil
	}
	// the jwt middleware is misconfigured, no request can be authorized
	return Claims{}, core.NewShutdownError(fmt.Sprintf("jwt claims of unexpected type %T", token.Claims))
}

func getContextUser(ctx echo.Context) (user.User, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	return claims.User(), nil
}

// forwardTokenMiddleware hands the verified token over to the upstream clients.
func forwardTokenMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, err := getContextToken(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context token")
		}
		req := ctx.Request()
		ctx.SetRequest(req.WithContext(upstream.WithToken(req.Context(), token.Raw)))
		return next(ctx)
	}
}

// cookieTokenMiddleware lets browsers authenticate page requests with the token cookie.
// An Authorization header takes precedence.
func cookieTokenMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		if req.Header.Get(echo.HeaderAuthorization) == "" {
			if cookie, err := req.Cookie(tokenCookieName); err == nil && cookie.Value != "" {
				req.Header.Set(echo.HeaderAuthorization, middleware.DefaultJWTConfig.AuthScheme+" "+cookie.Value)
			}
		}
		return next(ctx)
	}
}
