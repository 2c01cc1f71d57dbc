package mqttclient_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog/log"

	mc "github.com/oculab/visor/pkg/mqttclient"
)

func TestMQTTClientCtx(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	client := mc.NewClient(ctx, mc.ConfigOptions{})
	newCtx := mc.WithContext(ctx, client)
	oldClient := mc.FromContext(newCtx)
	if oldClient == nil {
		t.Fatalf("old client should not be nil")
	}
}

func TestFromContextWithoutClient(t *testing.T) {
	if client := mc.FromContext(context.Background()); client != nil {
		t.Fatalf("client should be nil, got %v", client)
	}
}
