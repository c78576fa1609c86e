package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/config"
)

const tokenIssuer = "kiddie-kingdom"

// Claims 请求方身份。令牌由外部账号服务签发，这里只解读。
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken 按共享密钥签发令牌，线上签发在账号服务，
// 这里留给测试和本地联调造令牌用。
func GenerateToken(cfg *config.JWTConfig, userID int64, username string) (string, error) {
	expire := time.Duration(cfg.ExpireMinutes) * time.Minute
	if expire <= 0 {
		expire = 2 * time.Hour
	}
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken 校验签名与有效期并还原身份，只接受 HS256
func ParseToken(cfg *config.JWTConfig, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID <= 0 {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
