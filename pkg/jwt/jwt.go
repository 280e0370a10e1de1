package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// Role permite al middleware RBAC decidir sin consultar la DB; StoreID y TenantID
// acotan cada operación a la tienda del usuario.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	StoreID  string `json:"store_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"` // "admin" | "manager" | "cashier" | "seller"
}

// Identity datos del usuario dentro del token.
type Identity struct {
	UserID   string
	StoreID  string
	TenantID string
	Role     string
}

// Generate genera un token JWT firmado con la identidad. La emisión real (login) vive
// fuera de esta API; se usa en tests y herramientas.
func Generate(secret string, id Identity, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:   id.UserID,
		StoreID:  id.StoreID,
		TenantID: id.TenantID,
		Role:     id.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve la identidad.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("claims inválidos")
	}
	if claims.UserID == "" || claims.StoreID == "" {
		return Identity{}, fmt.Errorf("claims incompletos")
	}
	return Identity{UserID: claims.UserID, StoreID: claims.StoreID, TenantID: claims.TenantID, Role: claims.Role}, nil
}
