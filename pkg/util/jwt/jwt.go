package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrEmptyUser Token 中没有有效的 user 声明
var ErrEmptyUser = errors.New("token has no user claim")

// Config JWT 配置
type Config struct {
	Secret      string
	Issuer      string
	Audience    string
	TokenExpiry time.Duration // Access Token 有效期
}

// Claims 自定义 JWT 声明
// User 即会话用户名，是 WebSocket 会话的唯一身份
type Claims struct {
	User string `json:"user"`
	jwt.RegisteredClaims
}

// Manager 负责签发与校验 Token
// 由 main.go 构造后注入到 user service、WebSocket handler 和 JWT 中间件
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager 创建 Token 管理器
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, now: time.Now}
}

// Generate 为用户签发 Token
func (m *Manager) Generate(user string) (string, error) {
	now := m.now()
	claims := Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.cfg.Issuer,
			Audience:  jwt.ClaimStrings{m.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.Secret))
}

// ParseToken 解析并验证 Token（签名、过期时间、issuer、audience）
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// Verify 校验 Token 并返回其中的用户名
// 无副作用，可被任意协程并发调用
func (m *Manager) Verify(tokenString string) (string, error) {
	claims, err := m.ParseToken(tokenString)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.User) == "" {
		return "", ErrEmptyUser
	}
	return claims.User, nil
}
