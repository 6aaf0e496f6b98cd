package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/chiptally/homegame-backend/internal/pkg/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var ctx context.Context
var client *pubsub.Client

func InitPubSub() {
	projectID := viper.GetString("GOOGLE_PROJECT_ID")
	if projectID == "" {
		log.Fatal().Msg("Pub sub missing projectID to initialize")
	}
	ctx = context.Background()
	var err error
	client, err = pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing pub sub connection")
	}
	log.Info().Str("projectId", projectID).Msg("Pubsub initialized")
}

// Publishable carries its own topic name so callers stay ignorant of
// topic wiring.
type Publishable interface {
	GetEventTopicName() string
}

func Publish(message Publishable) {
	t := getTopic(message.GetEventTopicName())
	defer t.Stop()

	result := t.Publish(ctx, &pubsub.Message{Data: utils.JsonEncode(message)})

	go func(res *pubsub.PublishResult) {
		if _, err := res.Get(ctx); err != nil {
			log.Warn().Err(err).Str("topic", message.GetEventTopicName()).Msg("Failed to publish message")
		}
	}(result)
}

func Subscribe(subscriptionHandler SubscriptionHandler) {
	sub := client.Subscription(subscriptionHandler.SubscriptionId)
	err := sub.Receive(ctx, subscriptionHandler.Handler)
	if err != nil {
		log.Error().Err(err).Str("subscriptionId", subscriptionHandler.SubscriptionId).Msg("Subscriber error")
	}
}

func CloseClient() {
	client.Close()
}

func getTopic(topicName string) *pubsub.Topic {
	t := client.Topic(topicName)
	if t == nil {
		nt, err := client.CreateTopic(ctx, topicName)
		if err != nil {
			log.Error().Err(err).Str("topic", topicName).Msg("Cannot create topic")
		}
		return nt
	}
	return t
}
