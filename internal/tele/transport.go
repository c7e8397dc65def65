package tele

import (
	"context"

	"github.com/temoto/vfd/log2"
)

// Tele transport contract:
// - Init fails only with invalid config, ignores network errors
// - application may start without broker available, transport reconnects in background
// - Publish returns false when message could not be queued
type Transporter interface {
	Init(ctx context.Context, log *log2.Log, c Config, topics []string, onMessage MessageCallback) error
	Publish(topic string, payload []byte, retained bool) bool
	Close()
}

type MessageCallback func(ctx context.Context, topic string, payload []byte) bool
