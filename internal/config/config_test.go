package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "YourWiFiNetwork", cfg.WiFi.SSID)
	assert.Equal(t, "YourWiFiPassword", cfg.WiFi.Password)

	assert.Equal(t, "test.mosquitto.org", cfg.MQTT.Broker)
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, "ESP32_Client", cfg.MQTT.ClientID)
	assert.Empty(t, cfg.MQTT.User)
	assert.Empty(t, cfg.MQTT.Password)
	assert.Equal(t, "esp32/device", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 1, cfg.MQTT.Qos)
	assert.False(t, cfg.MQTT.Retain)
	assert.Equal(t, 5000, cfg.MQTT.ReconnectDelay)
	assert.Equal(t, 60, cfg.MQTT.KeepAlive)
}

func TestDefaultsAreIndependentCopies(t *testing.T) {
	a := Default()
	a.MQTT.Port = 8883
	a.WiFi.SSID = "changed"

	b := Default()
	assert.Equal(t, 1883, b.MQTT.Port)
	assert.Equal(t, "YourWiFiNetwork", b.WiFi.SSID)
}

func TestDurations(t *testing.T) {
	cfg := DefaultMQTT()
	assert.Equal(t, 5*time.Second, cfg.ReconnectInterval())
	assert.Equal(t, time.Minute, cfg.KeepAliveInterval())
}

func TestBrokerURL(t *testing.T) {
	cfg := DefaultMQTT()
	assert.Equal(t, "tcp://test.mosquitto.org:1883", cfg.BrokerURL())

	cfg.Port = 8883
	assert.Equal(t, "ssl://test.mosquitto.org:8883", cfg.BrokerURL())

	cfg.Broker = "::1"
	cfg.Port = 1883
	assert.Equal(t, "tcp://[::1]:1883", cfg.BrokerURL())
}

func TestLoadMQTT_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, MQTTFile, `
broker = "192.168.1.10"
user = "device"
password = "secret"
retain = true
`)

	cfg, err := LoadMQTT(path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.10", cfg.Broker)
	assert.Equal(t, "device", cfg.User)
	assert.Equal(t, "secret", cfg.Password)
	assert.True(t, cfg.Retain)
	assert.Equal(t, 1883, cfg.Port)
	assert.Equal(t, 1, cfg.Qos)
	assert.Equal(t, "esp32/device", cfg.TopicPrefix)
}

func TestLoadMQTT_AcceptsOutOfRangeValues(t *testing.T) {
	path := writeFile(t, MQTTFile, `
port = -1
qos = 7
`)

	cfg, err := LoadMQTT(path)
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Port)
	assert.Equal(t, 7, cfg.Qos)

	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadWiFi(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeFile(t, WiFiFile, `ssid = "unterminated`)

	_, err := LoadWiFi(path)
	assert.Error(t, err)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeFile(t, MQTTFile, `
broker = "localhost"
keepalive_interval = 30
`)

	_, err := LoadMQTT(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Contains(t, err.Error(), "keepalive_interval")
}

func TestLoad_WrongType(t *testing.T) {
	path := writeFile(t, MQTTFile, `port = "1883"`)

	_, err := LoadMQTT(path)
	assert.Error(t, err)
}

func TestNewConfig(t *testing.T) {
	wifiPath := writeFile(t, WiFiFile, `
ssid = "home"
password = ""
`)
	mqttPath := writeFile(t, MQTTFile, `clientID = "kitchen-sensor"`)

	cfg, err := NewConfig(wifiPath, mqttPath)
	require.NoError(t, err)

	assert.Equal(t, "home", cfg.WiFi.SSID)
	assert.Empty(t, cfg.WiFi.Password)
	assert.Equal(t, "kitchen-sensor", cfg.MQTT.ClientID)
	assert.Equal(t, "test.mosquitto.org", cfg.MQTT.Broker)
}

func TestNewConfig_PropagatesErrors(t *testing.T) {
	dir := t.TempDir()
	wifiPath, mqttPath := Paths(dir)

	_, err := NewConfig(wifiPath, mqttPath)
	assert.Error(t, err)

	require.NoError(t, SaveWiFi(wifiPath, DefaultWiFi()))
	_, err = NewConfig(wifiPath, mqttPath)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	wifiPath, mqttPath := Paths(dir)

	want := Config{
		WiFi: WiFiConf{SSID: "office", Password: "correct horse battery"},
		MQTT: MQTTConf{
			Broker:         "broker.local",
			Port:           8883,
			ClientID:       "esp32-42",
			User:           "device",
			Password:       "s3cret",
			TopicPrefix:    "site/floor1/esp32-42",
			Qos:            2,
			Retain:         true,
			ReconnectDelay: 250,
			KeepAlive:      15,
		},
	}

	require.NoError(t, SaveWiFi(wifiPath, want.WiFi))
	require.NoError(t, SaveMQTT(mqttPath, want.MQTT))

	got, err := NewConfig(wifiPath, mqttPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(mqttPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveLoadRoundTrip_ZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), MQTTFile)
	require.NoError(t, SaveMQTT(path, MQTTConf{}))

	got, err := LoadMQTT(path)
	require.NoError(t, err)
	assert.Equal(t, MQTTConf{}, got)
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, DefaultWiFi().IsPlaceholder())
	assert.True(t, WiFiConf{SSID: "home", Password: "YourWiFiPassword"}.IsPlaceholder())
	assert.False(t, WiFiConf{SSID: "home", Password: "hunter22"}.IsPlaceholder())
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.MQTT.Password = "s3cret"

	r := cfg.Redacted()
	assert.Equal(t, "******", r.WiFi.Password)
	assert.Equal(t, "******", r.MQTT.Password)
	assert.Equal(t, cfg.WiFi.SSID, r.WiFi.SSID)
	assert.Equal(t, "s3cret", cfg.MQTT.Password)

	cfg.MQTT.Password = ""
	assert.Empty(t, cfg.Redacted().MQTT.Password)
}
