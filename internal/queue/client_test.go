package queue

import (
	"testing"
	"time"

	"github.com/tripmall/internal/config"
)

func TestNewClientDisabledIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("expected disabled client")
	}
	if err := client.EnqueueOrderTimeoutCancel(1, time.Now()); err != nil {
		t.Fatalf("disabled enqueue timeout cancel should be noop, got %v", err)
	}
	if err := client.EnqueueOrderStatusNotify(1, "confirmed"); err != nil {
		t.Fatalf("disabled enqueue status notify should be noop, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	_, serverCfg := BuildServerConfig(nil)
	if serverCfg.Concurrency != 10 {
		t.Fatalf("default concurrency want 10, got %d", serverCfg.Concurrency)
	}
	if len(serverCfg.Queues) != 1 || serverCfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("default queues unexpected: %v", serverCfg.Queues)
	}
}

func TestBuildServerConfigRespectsSettings(t *testing.T) {
	cfg := &config.QueueConfig{
		Enabled:     true,
		Host:        "redis.internal",
		Port:        6380,
		Concurrency: 4,
		Queues:      map[string]int{DefaultQueue: 10, CriticalQueue: 5},
	}
	opt, serverCfg := BuildServerConfig(cfg)
	if opt.Addr != "redis.internal:6380" {
		t.Fatalf("redis addr unexpected: %s", opt.Addr)
	}
	if serverCfg.Concurrency != 4 {
		t.Fatalf("concurrency want 4, got %d", serverCfg.Concurrency)
	}
	if serverCfg.Queues[CriticalQueue] != 5 {
		t.Fatalf("critical queue weight want 5, got %d", serverCfg.Queues[CriticalQueue])
	}
}
