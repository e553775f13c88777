package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Имена локальных файлов конфигурации. Они не попадают в git (см. .gitignore).
const (
	WiFiFile = "wifi_config.toml"
	MQTTFile = "mqtt_config.toml"
)

// Config структура конфигурации устройства.
type Config struct {
	WiFi WiFiConf // WiFi - параметры точки доступа.
	MQTT MQTTConf // MQTT - параметры брокера.
}

// WiFiConf структура конфигурации WiFi.
type WiFiConf struct {
	SSID     string `toml:"ssid"`     // SSID - имя сети.
	Password string `toml:"password"` // Password - пароль сети, пустой для открытой сети.
}

// MQTTConf структура конфигурации MQTT клиента.
type MQTTConf struct {
	Broker   string `toml:"broker"`   // Broker - адрес MQTT сервера (имя или IP).
	Port     int    `toml:"port"`     // Port - 1883 без TLS, 8883 с TLS.
	ClientID string `toml:"clientID"` // ClientID - имя клиента, уникальность на совести оператора.
	User     string `toml:"user"`     // User - логин, пустой для анонимного доступа.
	Password string `toml:"password"` // Password - пароль, пустой для анонимного доступа.

	// TopicPrefix is the base path: <prefix>/data, <prefix>/commands, <prefix>/status.
	TopicPrefix string `toml:"topicPrefix"`

	Qos            int  `toml:"qos"`            // Qos - качество обслуживания (0, 1 или 2).
	Retain         bool `toml:"retain"`         // Retain - флаг retain для публикаций.
	ReconnectDelay int  `toml:"reconnectDelay"` // ReconnectDelay - пауза между переподключениями, мс.
	KeepAlive      int  `toml:"keepAlive"`      // KeepAlive - интервал keepalive, сек.
}

// DefaultWiFi возвращает значения шаблона. Это заглушки, а не рабочие учетные данные.
func DefaultWiFi() WiFiConf {
	return WiFiConf{
		SSID:     "YourWiFiNetwork",
		Password: "YourWiFiPassword",
	}
}

// DefaultMQTT возвращает значения шаблона.
func DefaultMQTT() MQTTConf {
	return MQTTConf{
		Broker:         "test.mosquitto.org",
		Port:           1883,
		ClientID:       "ESP32_Client",
		TopicPrefix:    "esp32/device",
		Qos:            1,
		Retain:         false,
		ReconnectDelay: 5000,
		KeepAlive:      60,
	}
}

// Default возвращает полную конфигурацию со значениями шаблона.
func Default() Config {
	return Config{
		WiFi: DefaultWiFi(),
		MQTT: DefaultMQTT(),
	}
}

// NewConfig конструктор. Читает оба файла поверх значений по умолчанию.
// Значения не проверяются, для этого есть Validate.
func NewConfig(wifiPath, mqttPath string) (Config, error) {
	wifi, err := LoadWiFi(wifiPath)
	if err != nil {
		return Config{}, err
	}
	mqtt, err := LoadMQTT(mqttPath)
	if err != nil {
		return Config{}, err
	}
	return Config{WiFi: wifi, MQTT: mqtt}, nil
}

// LoadWiFi reads a WiFi file. Keys missing from the file keep their defaults.
func LoadWiFi(path string) (WiFiConf, error) {
	cfg := DefaultWiFi()
	if err := decodeFile(path, &cfg); err != nil {
		return WiFiConf{}, err
	}
	return cfg, nil
}

// LoadMQTT reads an MQTT file. Keys missing from the file keep their defaults.
func LoadMQTT(path string) (MQTTConf, error) {
	cfg := DefaultMQTT()
	if err := decodeFile(path, &cfg); err != nil {
		return MQTTConf{}, err
	}
	return cfg, nil
}

// SaveWiFi записывает конфигурацию WiFi в файл.
func SaveWiFi(path string, cfg WiFiConf) error {
	return encodeFile(path, cfg)
}

// SaveMQTT записывает конфигурацию MQTT в файл.
func SaveMQTT(path string, cfg MQTTConf) error {
	return encodeFile(path, cfg)
}

func decodeFile(path string, v interface{}) error {
	md, err := toml.DecodeFile(path, v)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	return nil
}

func encodeFile(path string, v interface{}) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("config %s: %w", path, err)
	}
	return f.Close()
}

// ReconnectInterval returns ReconnectDelay as a duration.
func (c MQTTConf) ReconnectInterval() time.Duration {
	return time.Duration(c.ReconnectDelay) * time.Millisecond
}

// KeepAliveInterval returns KeepAlive as a duration.
func (c MQTTConf) KeepAliveInterval() time.Duration {
	return time.Duration(c.KeepAlive) * time.Second
}

// Schema возвращает тип подключения: ssl для 8883, иначе tcp.
func (c MQTTConf) Schema() string {
	if c.Port == 8883 {
		return "ssl"
	}
	return "tcp"
}

// BrokerURL returns the broker address in the form paho expects.
func (c MQTTConf) BrokerURL() string {
	return c.Schema() + "://" + net.JoinHostPort(c.Broker, strconv.Itoa(c.Port))
}

// IsPlaceholder сообщает, что учетные данные WiFi не были изменены после копирования шаблона.
func (c WiFiConf) IsPlaceholder() bool {
	d := DefaultWiFi()
	return c.SSID == d.SSID || c.Password == d.Password
}

// Redacted возвращает копию с замаскированными паролями для вывода в лог.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "******"
	}
	c.WiFi.Password = mask(c.WiFi.Password)
	c.MQTT.Password = mask(c.MQTT.Password)
	return c
}
