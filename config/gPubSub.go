package config

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

// GetPubSubClient returns a Pub/Sub client, creating it on first use.
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is set.
func GetPubSubClient(ctx context.Context, s *Settings) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		return pubsubClient, nil
	}
	if s.PubSubProjectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID not set")
	}

	var opts []option.ClientOption
	if s.PubSubCredJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(s.PubSubCredJSON)))
	}
	c, err := pubsub.NewClient(ctx, s.PubSubProjectID, opts...)
	if err != nil {
		return nil, err
	}
	pubsubClient = c
	logg.WithField("project_id", s.PubSubProjectID).Info("pubsub client ready")
	return c, nil
}

// PublishJSON marshals obj and waits for the server-assigned message id.
func PublishJSON(ctx context.Context, topic *pubsub.Topic, obj interface{}, attrs map[string]string) (string, error) {
	if topic == nil {
		return "", errors.New("topic is required")
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
}
