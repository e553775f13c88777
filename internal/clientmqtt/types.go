package clientmqtt

import (
	"errors"
	"strings"
	"time"
)

type MQTTConf struct {
	ClientID       string        // ClientID - уникальное имя клиента для брокеров.
	Broker         string        // Broker - URL сервера, например tcp://host:1883.
	User           string        // User - логин для подключения к MQTT серверу.
	Password       string        // Password - пароль для подключения к MQTT серверу.
	TopicPrefix    string        // TopicPrefix - корень для data, commands и status.
	Qos            byte          // Qos - качество обслуживания.
	Retain         bool          // Retain - флаг retain для публикаций в data.
	ReconnectDelay time.Duration // ReconnectDelay - пауза между попытками подключения.
	KeepAlive      time.Duration // KeepAlive - интервал keepalive.
}

// Command is a message received on the commands topic.
type Command struct {
	Topic   string
	Payload []byte
}

// Status payloads published to the status topic.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

var (
	// ErrNotConnected is returned when publishing without a broker connection.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrContextCanceled is returned when ctx ends before the broker answers.
	ErrContextCanceled = errors.New("mqtt: context canceled")
)

// Topics строит имена топиков от общего префикса.
type Topics struct {
	prefix string
}

func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.TrimRight(prefix, "/")}
}

// Data - топик для данных устройства.
func (t Topics) Data() string {
	return t.prefix + "/data"
}

// Commands - топик для команд устройству.
func (t Topics) Commands() string {
	return t.prefix + "/commands"
}

// Status - топик состояния, сюда же уходит last will.
func (t Topics) Status() string {
	return t.prefix + "/status"
}
