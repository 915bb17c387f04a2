package sink

import (
	"context"
	"fmt"
	"logsink/internal/bus"
	"logsink/internal/global"
	"logsink/internal/logctx"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

// Creates new beats (lumberjack) output module. Returns nil nil if no endpoint.
func NewBeats(namespace []string, endpoint string) (module *Beats, err error) {
	if endpoint == "" {
		return
	}

	client, err := dialBeats(endpoint)
	if err != nil {
		return
	}

	module = &Beats{
		Namespace: append(append([]string(nil), namespace...), global.NSoBeats),
		Endpoint:  endpoint,
		client:    client,
	}
	return
}

func dialBeats(endpoint string) (client *lumberjack.SyncClient, err error) {
	compression := lumberjack.CompressionLevel(0)
	timeout := lumberjack.Timeout(global.BeatsTimeout)

	client, err = lumberjack.SyncDial(endpoint, compression, timeout)
	if err != nil {
		err = fmt.Errorf("failed connection to beats server: %w", err)
	}
	return
}

// Sends one record. A failed send is retried once on a fresh connection.
func (mod *Beats) Write(ctx context.Context, delivery bus.Delivery) (err error) {
	if mod == nil {
		return
	}

	mod.mu.Lock()
	defer mod.mu.Unlock()

	events := []interface{}{beatsEvent(delivery.Record)}

	if mod.client != nil {
		_, err = mod.client.Send(events)
		if err == nil {
			return
		}
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
			"beats send failed, reconnecting: %v\n", err)
		mod.client.Close()
		mod.client = nil
	}

	mod.client, err = dialBeats(mod.Endpoint)
	if err != nil {
		return
	}
	_, err = mod.client.Send(events)
	if err != nil {
		err = fmt.Errorf("failed to send to beats server: %w", err)
	}
	return
}

// Gracefully stops module
func (mod *Beats) Close() (err error) {
	if mod == nil {
		return
	}

	mod.mu.Lock()
	defer mod.mu.Unlock()

	if mod.client != nil {
		err = mod.client.Close()
		mod.client = nil
	}
	return
}
