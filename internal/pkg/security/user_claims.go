package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	JWTIssuer         string = "Lumen"
	JWTExpirationTime        = time.Hour * 24
)

// JWTSecret 签名密钥，启动时由配置覆盖
var JWTSecret = "Lumen"

// UserClaims Token 中携带的身份信息
type UserClaims struct {
	UserID uint64 `json:"user_id"`
	jwt.RegisteredClaims
}
