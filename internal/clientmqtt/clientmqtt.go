package clientmqtt

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"wifimqtt/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

const (
	disconnectQuiesce = 500 // ms
	statusTimeout     = time.Second
)

// ClientMQTT структура клиента MQTT.
type ClientMQTT struct {
	ctx        context.Context
	log        logger.Logger
	cfgClient  MQTTConf
	topics     Topics
	client     mqtt.Client
	commandsCh chan<- Command
	newClient  func(o *mqtt.ClientOptions) mqtt.Client

	mu sync.RWMutex
}

// MQTTClient is a convenience interface to use within this application.
type MQTTClient interface {
	Start(ctx context.Context, commandsCh chan<- Command) error
	Stop() error
	Publish(ctx context.Context, payload []byte) error
}

var _ MQTTClient = (*ClientMQTT)(nil)

// NewClient конструктор.
func NewClient(log logger.Logger, cfgClient MQTTConf) *ClientMQTT {
	return &ClientMQTT{
		log:       log,
		cfgClient: cfgClient,
		topics:    NewTopics(cfgClient.TopicPrefix),
		newClient: mqtt.NewClient,
	}
}

// Topics returns the topic names derived from the configured prefix.
func (c *ClientMQTT) Topics() Topics {
	return c.topics
}

// Start connects to the broker and forwards commands to commandsCh until ctx ends.
func (c *ClientMQTT) Start(ctx context.Context, commandsCh chan<- Command) error {
	if c.log.GetLevel() == "debug" {
		w := c.log.With(logger.Fields{"module": "paho"})
		mqtt.ERROR = log.New(w.WriterLevel(logrus.ErrorLevel), "", 0)
		mqtt.CRITICAL = log.New(w.WriterLevel(logrus.ErrorLevel), "", 0)
		mqtt.WARN = log.New(w.WriterLevel(logrus.WarnLevel), "", 0)
	}

	c.ctx = ctx
	c.commandsCh = commandsCh
	c.mu.Lock()
	c.client = c.newClient(c.buildOptions())
	c.mu.Unlock()

	if err := c.wait(ctx, c.client.Connect()); err != nil {
		return fmt.Errorf("connect to %s: %w", c.cfgClient.Broker, err)
	}

	c.log.With(logger.Fields{"module": "mqtt"}).Infof("Status: %v", c.client.IsConnected())
	return nil
}

// Stop публикует offline и отключается от брокера.
func (c *ClientMQTT) Stop() error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil || !client.IsConnected() {
		return nil
	}

	token := client.Publish(c.topics.Status(), c.cfgClient.Qos, true, StatusOffline)
	if !token.WaitTimeout(statusTimeout) {
		c.log.With(logger.Fields{"module": "mqtt"}).Warn("offline status was not acknowledged in time")
	} else if token.Error() != nil {
		c.log.With(logger.Fields{"module": "mqtt"}).Errorf("publish offline status: %v", token.Error())
	}

	client.Disconnect(disconnectQuiesce)
	return nil
}

// Publish отправляет payload в топик data с настроенными qos и retain.
func (c *ClientMQTT) Publish(ctx context.Context, payload []byte) error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	topic := c.topics.Data()
	if err := c.wait(ctx, client.Publish(topic, c.cfgClient.Qos, c.cfgClient.Retain, payload)); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	c.log.With(logger.Fields{"module": "mqtt"}).Debugf("published %d bytes to %s", len(payload), topic)
	return nil
}

func (c *ClientMQTT) buildOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfgClient.Broker).
		SetClientID(c.cfgClient.ClientID).
		SetDefaultPublishHandler(c.messageHandler).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(c.cfgClient.ReconnectDelay).
		SetMaxReconnectInterval(c.cfgClient.ReconnectDelay).
		SetKeepAlive(c.cfgClient.KeepAlive).
		SetWill(c.topics.Status(), StatusOffline, c.cfgClient.Qos, true)

	// Пустой логин означает анонимный доступ.
	if c.cfgClient.User != "" {
		opts.SetUsername(c.cfgClient.User).SetPassword(c.cfgClient.Password)
	}
	return opts
}

// wait blocks until the token completes or ctx ends.
func (c *ClientMQTT) wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ErrContextCanceled
	}
}

// connectHandler вызывается при каждом подключении, в том числе после переподключения.
func (c *ClientMQTT) connectHandler(client mqtt.Client) {
	c.log.With(logger.Fields{"module": "mqtt"}).Info("client connected to server")

	client.Publish(c.topics.Status(), c.cfgClient.Qos, true, StatusOnline)
	c.sub(client, c.topics.Commands())
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.With(logger.Fields{"module": "mqtt"}).Errorf("server connect lost: %v", err)
}

func (c *ClientMQTT) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.forward(msg.Topic(), msg.Payload())
}

func (c *ClientMQTT) forward(topic string, payload []byte) {
	c.log.With(logger.Fields{"module": "mqtt"}).Debugf("received message: %q from topic: %s", payload, topic)
	if c.commandsCh == nil {
		return
	}
	select {
	case c.commandsCh <- Command{Topic: topic, Payload: payload}:
	case <-c.ctx.Done():
	}
}

func (c *ClientMQTT) sub(client mqtt.Client, topic string) {
	token := client.Subscribe(topic, c.cfgClient.Qos, c.messageHandler)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.With(logger.Fields{"module": "mqtt"}).Errorf("topic %s subscription error. %v", topic, token.Error())
				return
			}
		}
		c.log.With(logger.Fields{"module": "mqtt"}).Debugf("topic %s subscribed", topic)
	}()
}
