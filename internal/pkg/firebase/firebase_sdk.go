package firebase

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog/log"
)

var firebaseAuthClient *auth.Client
var ctx context.Context

// InitFirebaseSdk wires the identity provider. Verified tokens are the
// only source of caller identity; nothing downstream re-checks
// credentials.
func InitFirebaseSdk() {
	ctx = context.Background()
	app, appErr := firebase.NewApp(ctx, nil)
	if appErr != nil {
		log.Fatal().Err(appErr).Msg("error initializing firebase app")
	}
	var clientErr error
	firebaseAuthClient, clientErr = app.Auth(ctx)
	if clientErr != nil {
		log.Fatal().Err(clientErr).Msg("error getting firebase auth client")
	}
}

func VerifyIdToken(idToken string) (*auth.Token, error) {
	return firebaseAuthClient.VerifyIDToken(ctx, idToken)
}
