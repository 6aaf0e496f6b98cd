package utils

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

const (
	nameClaimKey  = "name"
	emailClaimKey = "email"
	tokenCtxKey   = "accessToken"
)

type AccessToken struct {
	Token    auth.Token
	RawToken string
}

func SetAccessTokenCtx(token *AccessToken, ctx *gin.Context) {
	ctx.Set(tokenCtxKey, *token)
}

func GetAccessToken(ctx *gin.Context) auth.Token {
	return getAccessToken(ctx).Token
}

// GetUserExternalId is the verified identity of the caller; the game
// core treats it as the sole caller id and never re-verifies it.
func GetUserExternalId(ctx *gin.Context) string {
	return GetAccessToken(ctx).Subject
}

// GetUserDisplayName prefers the name claim and falls back to the email
// claim, matching what ends up on players and history events.
func GetUserDisplayName(ctx *gin.Context) string {
	token := GetAccessToken(ctx)
	if name, ok := token.Claims[nameClaimKey].(string); ok && name != "" {
		return name
	}
	if email, ok := token.Claims[emailClaimKey].(string); ok {
		return email
	}
	return ""
}

func getAccessToken(ctx *gin.Context) AccessToken {
	value, exists := ctx.Get(tokenCtxKey)
	if !exists {
		ctx.AbortWithStatus(http.StatusInternalServerError)
		return AccessToken{}
	}
	return value.(AccessToken)
}
