// Package tele connects display service to MQTT broker:
// media center bridge feeds player state and commands, service publishes status.
package tele

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/vfd/internal/player"
	"github.com/temoto/vfd/internal/settings"
	"github.com/temoto/vfd/log2"
)

const (
	topicPlayer  = "player"
	topicCommand = "cmd"
	topicStatus  = "status"
)

const (
	CommandReload = "reload"
	CommandEnable = "enable"
)

type Config struct {
	Enable       bool
	MqttBroker   string
	ClientID     string
	TopicPrefix  string
	KeepaliveSec int
}

func ConfigFrom(c *settings.Config) Config {
	return Config{
		Enable:       c.Tele.Enable,
		MqttBroker:   c.Tele.MqttBroker,
		ClientID:     c.Tele.ClientID,
		TopicPrefix:  c.Tele.TopicPrefix,
		KeepaliveSec: c.Tele.KeepaliveSec,
	}
}

func (c Config) topic(suffix string) string {
	return strings.TrimSuffix(c.TopicPrefix, "/") + "/" + suffix
}

// Handler is implemented by display service.
type Handler interface {
	FeedPlayer(player.State)
	Reload() error
	SetModeEnabled(mode string, on bool) error
}

type Command struct {
	Cmd  string `json:"cmd"`
	Mode string `json:"mode,omitempty"`
	On   bool   `json:"on,omitempty"`
}

type Status struct {
	Online bool            `json:"online"`
	Active string          `json:"active"`
	Leds   []string        `json:"leds"`
	Modes  map[string]bool `json:"modes,omitempty"`
}

// Tele contract:
// - Init() fails only with invalid config, network issues ignored
// - disabled Tele is valid, SendStatus is no-op
// - status is published retained and only when changed
type Tele struct {
	mu        sync.Mutex
	config    Config
	log       *log2.Log
	preset    Transporter
	transport Transporter // nil while disabled
	handler   Handler
	last      []byte
}

func New(h Handler) *Tele { return &Tele{handler: h} }

func NewWithTransporter(trans Transporter, h Handler) *Tele {
	return &Tele{preset: trans, handler: h}
}

func (self *Tele) Init(ctx context.Context, log *log2.Log, c Config) error {
	self.config = c
	self.log = log
	self.transport = nil
	if !c.Enable {
		return nil
	}
	if c.TopicPrefix == "" {
		return errors.NotValidf("tele topic_prefix empty")
	}
	// test code sets .preset
	trans := self.preset
	if trans == nil {
		trans = &transportMqtt{}
	}
	topics := []string{c.topic(topicPlayer), c.topic(topicCommand)}
	if err := trans.Init(ctx, log, c, topics, self.onMessage); err != nil {
		return errors.Annotate(err, "tele transport")
	}
	self.transport = trans
	return nil
}

func (self *Tele) Enabled() bool { return self.transport != nil }

func (self *Tele) Close() {
	if self.transport != nil {
		self.transport.Close()
	}
}

func (self *Tele) SendStatus(s Status) bool {
	if self.transport == nil {
		return false
	}
	b, err := json.Marshal(s)
	if err != nil {
		self.log.Error(errors.Annotate(err, "tele status marshal"))
		return false
	}

	self.mu.Lock()
	defer self.mu.Unlock()
	if bytes.Equal(b, self.last) {
		return true
	}
	if !self.transport.Publish(self.config.topic(topicStatus), b, true) {
		return false
	}
	self.last = b
	return true
}

func (self *Tele) onMessage(ctx context.Context, topic string, payload []byte) bool {
	var err error
	switch topic {
	case self.config.topic(topicPlayer):
		var s player.State
		if err = json.Unmarshal(payload, &s); err == nil {
			self.handler.FeedPlayer(s)
		}
	case self.config.topic(topicCommand):
		err = self.dispatchCommand(payload)
	default:
		err = errors.NotSupportedf("topic=%s", topic)
	}
	if err != nil {
		self.log.Error(errors.Annotatef(err, "tele message topic=%s payload=%s", topic, payload))
		return false
	}
	return true
}

func (self *Tele) dispatchCommand(payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return errors.Annotate(err, "command unmarshal")
	}
	switch cmd.Cmd {
	case CommandReload:
		return self.handler.Reload()
	case CommandEnable:
		if cmd.Mode == "" {
			return errors.NotValidf("enable without mode")
		}
		return self.handler.SetModeEnabled(cmd.Mode, cmd.On)
	default:
		return errors.NotSupportedf("command=%q", cmd.Cmd)
	}
}
