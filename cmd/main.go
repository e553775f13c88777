package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wifimqtt/internal/clientmqtt"
	"wifimqtt/internal/config"
	"wifimqtt/internal/logger"
)

var (
	configDir string
	logLevel  string
	initOnly  bool
	force     bool
	checkOnly bool
)

func init() {
	flag.StringVar(&configDir, "dir", "configs", "Directory with wifi_config.toml and mqtt_config.toml")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&initOnly, "init", false, "Copy the config templates into -dir and exit")
	flag.BoolVar(&force, "force", false, "With -init, overwrite existing config files")
	flag.BoolVar(&checkOnly, "check", false, "Validate the config files, print them and exit")
}

func main() {
	flag.Parse()

	log, err := logger.NewLogger(logLevel)
	if err != nil {
		fmt.Printf("failed to create a logger: %v\n", err)
		os.Exit(1)
	}

	if initOnly {
		written, err := config.Install(configDir, force)
		if err != nil {
			log.With(logger.Fields{"module": "config"}).Errorf("install templates: %v", err)
			os.Exit(1)
		}
		for _, path := range written {
			log.With(logger.Fields{"module": "config"}).Infof("template written to %s, edit it before use", path)
		}
		if len(written) == 0 {
			log.With(logger.Fields{"module": "config"}).Info("config files already exist, use -force to overwrite")
		}
		return
	}

	cfg, err := config.NewConfig(config.Paths(configDir))
	if err != nil {
		log.With(logger.Fields{"module": "config"}).Errorf("configuration file read error: %v", err)
		if errors.Is(err, os.ErrNotExist) {
			log.With(logger.Fields{"module": "config"}).Info("run with -init to create the config files from templates")
		}
		os.Exit(1)
	}

	if cfg.WiFi.IsPlaceholder() {
		log.With(logger.Fields{"module": "wifi"}).Warn("WiFi credentials are still the template placeholders")
	}

	if checkOnly {
		os.Exit(check(os.Stdout, log, cfg))
	}

	if err := cfg.Validate(); err != nil {
		log.With(logger.Fields{"module": "config"}).Error(err)
		os.Exit(1)
	}
	log.With(logger.Fields{"module": "wifi"}).Infof("configured for network %q", cfg.WiFi.SSID)

	client := clientmqtt.NewClient(log, ConvertConfigClientMQTT(cfg.MQTT))
	topics := client.Topics()
	log.With(logger.Fields{"module": "mqtt"}).Debugf("NewClient created ok, data: %s, commands: %s", topics.Data(), topics.Commands())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	commandsCh := make(chan clientmqtt.Command, 10)

	if err = client.Start(ctx, commandsCh); err != nil {
		log.Error("failed to start MQTT service: ", err.Error())
		cancel()
	}

	go heartbeat(ctx, log, client, cfg.MQTT.KeepAliveInterval())

	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case cmd := <-commandsCh:
			log.With(logger.Fields{"module": "mqtt", "topic": cmd.Topic}).Infof("command received: %s", cmd.Payload)
		}
	}

	if err := client.Stop(); err != nil {
		log.Error("failed to stop MQTT service: ", err.Error())
	}

	log.Info("shutdown complete")
}

// check печатает конфигурацию без паролей и возвращает код выхода.
func check(out io.Writer, log *logger.Log, cfg config.Config) int {
	data, err := json.MarshalIndent(cfg.Redacted(), "", "  ")
	if err != nil {
		log.Error(err)
		return 1
	}
	fmt.Fprintln(out, string(data))

	if err := cfg.Validate(); err != nil {
		log.With(logger.Fields{"module": "config"}).Error(err)
		return 1
	}
	log.With(logger.Fields{"module": "config"}).Info("configuration is valid")
	return 0
}

// heartbeat публикует состояние в топик data раз в интервал keepalive.
// Интервал keepalive используется намеренно: отдельной настройки в схеме нет.
func heartbeat(ctx context.Context, log *logger.Log, client clientmqtt.MQTTClient, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			payload, err := json.Marshal(struct {
				Status string `json:"status"`
				Time   string `json:"time"`
			}{clientmqtt.StatusOnline, now.UTC().Format(time.RFC3339)})
			if err != nil {
				log.Error(err)
				continue
			}
			if err := client.Publish(ctx, payload); err != nil {
				log.With(logger.Fields{"module": "mqtt"}).Warnf("heartbeat: %v", err)
			}
		}
	}
}

// ConvertConfigClientMQTT преобразует структуры.
func ConvertConfigClientMQTT(cfg config.MQTTConf) clientmqtt.MQTTConf {
	return clientmqtt.MQTTConf{
		ClientID:       cfg.ClientID,
		Broker:         cfg.BrokerURL(),
		User:           cfg.User,
		Password:       cfg.Password,
		TopicPrefix:    cfg.TopicPrefix,
		Qos:            byte(cfg.Qos),
		Retain:         cfg.Retain,
		ReconnectDelay: cfg.ReconnectInterval(),
		KeepAlive:      cfg.KeepAliveInterval(),
	}
}
