package middleware

import (
	"net/http"
	"strings"

	"github.com/chiptally/homegame-backend/internal/pkg/firebase"
	"github.com/chiptally/homegame-backend/internal/pkg/reject"
	"github.com/chiptally/homegame-backend/internal/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	accessTokenRequired = "error.token.required"
	accessTokenInvalid  = "error.token.invalid"
)

func VerifyAuthToken(context *gin.Context) {
	authHeader := context.Request.Header.Get("Authorization")
	idTokenValue := strings.TrimSpace(strings.ReplaceAll(authHeader, "Bearer", ""))
	if idTokenValue == "" {
		context.AbortWithStatusJSON(
			http.StatusUnauthorized,
			reject.NewProblem().
				WithTitle("Missing access token").
				WithStatus(http.StatusUnauthorized).
				WithCode(accessTokenRequired).
				Build())
		return
	}
	token, err := firebase.VerifyIdToken(idTokenValue)
	if err != nil {
		log.Warn().Err(err).Msg("Error verifying token")
		context.AbortWithStatusJSON(
			http.StatusUnauthorized,
			reject.NewProblem().
				WithTitle("Cannot verify access token").
				WithStatus(http.StatusUnauthorized).
				WithCode(accessTokenInvalid).
				Build())
		return
	}
	utils.SetAccessTokenCtx(&utils.AccessToken{Token: *token, RawToken: idTokenValue}, context)
}
