package livesync

import (
	"context"

	gcppubsub "cloud.google.com/go/pubsub"
	"github.com/chiptally/homegame-backend/internal/pkg/pubsub"
	"github.com/chiptally/homegame-backend/internal/pkg/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type gameChangedMessage struct {
	GameId string `json:"gameId"`
}

func (m gameChangedMessage) GetEventTopicName() string {
	return viper.GetString("GAME_CHANGED_TOPIC")
}

// PubsubPublisher relays committed changes to the shared topic so every
// instance re-delivers them to its own subscribers.
type PubsubPublisher struct{}

func (PubsubPublisher) PublishGameChanged(gameId string) {
	pubsub.Publish(gameChangedMessage{GameId: gameId})
}

// NewChangeSubscriptionHandler decodes game-changed notifications and
// hands them to the bridge. Malformed payloads are acked and dropped;
// redelivering them would never parse any better.
func NewChangeSubscriptionHandler(bridge *Bridge) pubsub.SubscriptionHandler {
	return pubsub.SubscriptionHandler{
		SubscriptionId: viper.GetString("GAME_CHANGED_SUBSCRIPTION"),
		Handler: func(ctx context.Context, message *gcppubsub.Message) {
			defer message.Ack()
			payload, err := utils.JsonDecodeByteStream[gameChangedMessage](message.Data)
			if err != nil {
				log.Warn().Err(err).Msg("dropping malformed game-changed notification")
				return
			}
			bridge.HandleRemoteChange(ctx, payload.GameId)
		},
	}
}
