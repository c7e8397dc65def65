package tele

import (
	"context"
	"net/url"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/vfd/helpers"
	"github.com/temoto/vfd/log2"
)

const (
	defaultKeepalive   = 60 * time.Second
	defaultPingTimeout = 30 * time.Second
	closeQuiesceMs     = 250
)

type transportMqtt struct {
	log       *log2.Log
	onMessage func(topic string, payload []byte) bool
	m         mqtt.Client
	mopt      *mqtt.ClientOptions
	topics    []string
	topicWill string
}

func (self *transportMqtt) Init(ctx context.Context, log *log2.Log, c Config, topics []string, onMessage MessageCallback) error {
	self.log = log
	mqttLog := log.Clone(log2.LError)
	mqtt.ERROR = mqttLog
	mqtt.CRITICAL = mqttLog

	if _, err := url.ParseRequestURI(c.MqttBroker); err != nil {
		return errors.Annotatef(err, "tele broker=%s", c.MqttBroker)
	}

	self.onMessage = func(topic string, payload []byte) bool {
		return onMessage(ctx, topic, payload)
	}
	self.topics = topics
	self.topicWill = c.topic(topicStatus)
	keepAlive := helpers.IntSecondDefault(c.KeepaliveSec, defaultKeepalive)

	self.mopt = mqtt.NewClientOptions().
		AddBroker(c.MqttBroker).
		SetBinaryWill(self.topicWill, []byte(`{"online":false}`), 1, true).
		SetCleanSession(true).
		SetClientID(c.ClientID).
		SetDefaultPublishHandler(self.messageHandler).
		SetKeepAlive(keepAlive).
		SetPingTimeout(defaultPingTimeout).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(keepAlive).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler)
	self.m = mqtt.NewClient(self.mopt)
	// broker may be down at boot, initial connect error is not fatal
	go func() {
		if token := self.m.Connect(); token.Wait() && token.Error() != nil {
			self.log.Errorf("tele mqtt connect broker=%s err=%v", c.MqttBroker, token.Error())
		}
	}()
	return nil
}

func (self *transportMqtt) Close() {
	if self.m == nil {
		return
	}
	self.log.Debugf("tele mqtt close")
	self.m.Disconnect(closeQuiesceMs)
}

func (self *transportMqtt) Publish(topic string, payload []byte, retained bool) bool {
	if self.m == nil || !self.m.IsConnected() {
		return false
	}
	self.log.Debugf("tele mqtt publish topic=%s payload=%s", topic, payload)
	self.m.Publish(topic, 1, retained, payload)
	return true
}

func (self *transportMqtt) messageHandler(c mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	self.log.Debugf("tele mqtt message topic=%s payload=%s", msg.Topic(), payload)
	self.onMessage(msg.Topic(), payload)
}

func (self *transportMqtt) connectLostHandler(c mqtt.Client, err error) {
	self.log.Infof("tele mqtt disconnect err=%v", err)
}

func (self *transportMqtt) onConnectHandler(c mqtt.Client) {
	self.log.Infof("tele mqtt connect")
	for _, topic := range self.topics {
		if token := c.Subscribe(topic, 1, nil); token.Wait() && token.Error() != nil {
			self.log.Errorf("tele mqtt subscribe topic=%s err=%v", topic, token.Error())
		}
	}
}
