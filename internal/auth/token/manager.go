// 文件路径: internal/auth/token/manager.go
// 模块说明: 这是 internal 模块里的 manager 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package token

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles that may call the status API.
const (
	RoleSeller   = "seller"
	RoleBuyer    = "buyer"
	RoleOperator = "operator"
)

// Manager 负责签发和校验调用方的 JWT。
type Manager struct {
	method   jwt.SigningMethod
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
	now      func() time.Time
}

// Options 配置 Token 管理器。
type Options struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	TTL        time.Duration
	Leeway     time.Duration
	SigningAlg string
	Now        func() time.Time
}

// Claims 包含 JWT 标准声明以及调用方角色。
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	SessionID string `json:"sid,omitempty"`
}

// IssueInput 定义签发令牌时的可覆盖参数。
type IssueInput struct {
	Subject string
	Role    string
	TTL     time.Duration
}

var (
	// ErrInvalidToken 表示解析或校验失败。
	ErrInvalidToken = errors.New("invalid token / 无效的 token")
	// ErrExpiredToken 表示令牌超出允许的过期宽限。
	ErrExpiredToken = errors.New("token expired / token 已过期")
	// ErrUnknownRole 表示角色不在允许列表中。
	ErrUnknownRole = errors.New("unknown role / 未知角色")
)

// ValidRole reports whether role is seller, buyer or operator.
func ValidRole(role string) bool {
	return slices.Contains([]string{RoleSeller, RoleBuyer, RoleOperator}, role)
}

// NewManager 组装 JWT 管理器；未指定 SigningAlg 时默认使用 HS256。
func NewManager(opts Options) (*Manager, error) {
	if len(opts.SigningKey) == 0 {
		return nil, fmt.Errorf("signing key is required / 签名密钥不能为空")
	}
	method := jwt.GetSigningMethod(strings.ToUpper(strings.TrimSpace(opts.SigningAlg)))
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	leeway := opts.Leeway
	if leeway < 0 {
		leeway = 0
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		method:   method,
		secret:   append([]byte(nil), opts.SigningKey...),
		issuer:   strings.TrimSpace(opts.Issuer),
		audience: strings.TrimSpace(opts.Audience),
		ttl:      ttl,
		leeway:   leeway,
		now:      now,
	}, nil
}

// Issue 签发带角色的 JWT，每个令牌都有独立的 session id。
func (m *Manager) Issue(input IssueInput) (string, *Claims, error) {
	if m == nil {
		return "", nil, fmt.Errorf("token manager not initialized / token 管理器未初始化")
	}
	if strings.TrimSpace(input.Subject) == "" {
		return "", nil, fmt.Errorf("token subject is required / token subject 不能为空")
	}
	if !ValidRole(input.Role) {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownRole, input.Role)
	}
	ttl := input.TTL
	if ttl <= 0 {
		ttl = m.ttl
	}

	now := m.now().UTC()
	sid := uuid.NewString()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			Issuer:    m.issuer,
			Subject:   input.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:      input.Role,
		SessionID: sid,
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse 校验 JWT 字符串并返回解析后的声明。
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	if m == nil {
		return nil, fmt.Errorf("token manager not initialized / token 管理器未初始化")
	}
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithLeeway(m.leeway),
	)
	parsed, err := parser.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := m.validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// validateClaims 校验签发方、受众和角色。
func (m *Manager) validateClaims(claims *Claims) error {
	if claims.ExpiresAt == nil {
		return ErrExpiredToken
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return ErrInvalidToken
	}
	if m.audience != "" && !slices.Contains(claims.Audience, m.audience) {
		return ErrInvalidToken
	}
	if !ValidRole(claims.Role) {
		return ErrUnknownRole
	}
	return nil
}
