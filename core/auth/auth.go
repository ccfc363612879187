package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// sessionClaims 匿名编辑会话声明。没有用户账号，
// 会话只用来标识一个打开了编辑器的浏览器。
type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// IssueSession 签发新的匿名会话令牌，返回 (token, sessionID)
func IssueSession(secret string, ttl time.Duration) (string, string, error) {
	sid := uuid.NewString()
	now := time.Now()

	claims := sessionClaims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "clipcut",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("签发会话令牌失败: %w", err)
	}
	return signed, sid, nil
}

// VerifySession 校验令牌并返回会话ID
func VerifySession(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("非法的签名方法: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
	if err != nil {
		return "", fmt.Errorf("会话令牌无效: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("会话令牌无效")
	}
	return claims.SessionID, nil
}
