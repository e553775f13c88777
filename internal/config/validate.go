package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Ограничения 802.11 и WPA2-PSK.
const (
	maxSSIDLen       = 32
	minPassphraseLen = 8
	maxPassphraseLen = 63
	rawPSKLen        = 64
)

// Validate проверяет конфигурацию WiFi.
func (c WiFiConf) Validate() error {
	return joinErrs(c.problems())
}

func (c WiFiConf) problems() []string {
	var errs []string
	if c.SSID == "" {
		errs = append(errs, "wifi.ssid is required")
	} else if len(c.SSID) > maxSSIDLen {
		errs = append(errs, fmt.Sprintf("wifi.ssid must be at most %d bytes", maxSSIDLen))
	}
	// An empty password means an open network.
	if n := len(c.Password); n > 0 && (n < minPassphraseLen || n > maxPassphraseLen) && !isRawPSK(c.Password) {
		errs = append(errs, fmt.Sprintf("wifi.password must be empty, %d..%d bytes or %d hex digits", minPassphraseLen, maxPassphraseLen, rawPSKLen))
	}
	return errs
}

// Validate проверяет конфигурацию MQTT.
func (c MQTTConf) Validate() error {
	return joinErrs(c.problems())
}

func (c MQTTConf) problems() []string {
	var errs []string
	if c.Broker == "" {
		errs = append(errs, "mqtt.broker is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "mqtt.port must be between 1 and 65535")
	}
	if c.ClientID == "" {
		errs = append(errs, "mqtt.clientID is required")
	}
	if c.TopicPrefix == "" {
		errs = append(errs, "mqtt.topicPrefix is required")
	} else if strings.ContainsAny(c.TopicPrefix, "+#") {
		errs = append(errs, "mqtt.topicPrefix must not contain wildcards")
	}
	if c.User == "" && c.Password != "" {
		errs = append(errs, "mqtt.password requires mqtt.user")
	}
	if c.Qos < 0 || c.Qos > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.ReconnectDelay <= 0 {
		errs = append(errs, "mqtt.reconnectDelay must be positive")
	}
	if c.KeepAlive < 0 {
		errs = append(errs, "mqtt.keepAlive must not be negative")
	}
	return errs
}

// Validate checks both records and reports every problem at once.
func (c Config) Validate() error {
	return joinErrs(append(c.WiFi.problems(), c.MQTT.problems()...))
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
}

// isRawPSK reports whether s is a 256-bit PSK written as hex.
func isRawPSK(s string) bool {
	if len(s) != rawPSKLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
