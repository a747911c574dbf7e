package gateway

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// KeepAlive periodically sends a keep-alive frame down every open stream.
// Proxies stop timing idle streams out, and connections whose reader went
// away fill their outbox and get pruned.
type KeepAlive struct {
	cron *cron.Cron
	spec string
}

func newKeepAlive(spec string, beat func()) (*KeepAlive, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, beat); err != nil {
		return nil, fmt.Errorf("invalid keepalive schedule %q: %w", spec, err)
	}
	return &KeepAlive{cron: c, spec: spec}, nil
}

// Start begins firing keep-alives in the background.
func (k *KeepAlive) Start() {
	k.cron.Start()
	slog.Info("gateway: keep-alive scheduler started", "schedule", k.spec)
}

// Stop halts the scheduler and waits for a running beat to finish.
func (k *KeepAlive) Stop() {
	<-k.cron.Stop().Done()
}
