package inspect

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/glintui/glint/reconcile"
)

// tokens are HS256 over a shared secret. The client id inside the token is
// only used to label the connection in logs and frames.

func NewToken(secret []byte, clientId reconcile.Id, expire time.Duration) (string, error) {
	claims := gojwt.MapClaims{
		"client_id": clientId.String(),
		"scope":     "inspect",
		"exp":       time.Now().Add(expire).Unix(),
	}
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func VerifyToken(secret []byte, tokenStr string) (reconcile.Id, error) {
	token, err := gojwt.Parse(tokenStr, func(token *gojwt.Token) (any, error) {
		if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return reconcile.Id{}, err
	}

	claims := token.Claims.(gojwt.MapClaims)

	if scope, ok := claims["scope"]; !ok || scope != "inspect" {
		return reconcile.Id{}, fmt.Errorf("Missing inspect scope.")
	}

	clientIdStr, ok := claims["client_id"].(string)
	if !ok {
		return reconcile.Id{}, fmt.Errorf("Missing client id.")
	}
	clientId, err := reconcile.ParseId(clientIdStr)
	if err != nil {
		return reconcile.Id{}, err
	}

	return clientId, nil
}
