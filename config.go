package main

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Go-routine-4595/myo-rest-bridge/adapters/controller"
	devmqtt "github.com/Go-routine-4595/myo-rest-bridge/adapters/device/mqtt"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/device/sim"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/gateway/event-hub"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/gateway/mqtt"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/gateway/rabbitmq"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/gateway/rest"
	"github.com/Go-routine-4595/myo-rest-bridge/service"
)

const (
	defaultHost = "http://localhost:3000"
	defaultID   = "53e621c7af755b5a17000002"
)

type Config struct {
	rest.RestConfig             `yaml:"RestConfig"`
	controller.ControllerConfig `yaml:"ControllerConfig"`
	service.ForwarderConfig     `yaml:"ForwarderConfig"`
	sim.SimConfig               `yaml:"SimConfig"`
	DeviceMqttConfig            devmqtt.MqttHubConf `yaml:"DeviceMqttConfig"`
	mqtt.MqttConf               `yaml:"MqttConfig"`
	rabbitmq.RabbitMQConfig     `yaml:"RabbitConfig"`
	event_hub.EventHubConfig    `yaml:"EventHubConfig"`
	Mirrors                     []string `yaml:"Mirrors"`
	LogLevel                    int      `yaml:"LogLevel"`
}

func defaultConfig() Config {
	return Config{
		RestConfig: rest.RestConfig{
			Host:      defaultHost,
			DefaultID: defaultID,
		},
		ControllerConfig: controller.ControllerConfig{
			PollInterval:  50,
			FindTimeout:   10000,
			PromptOnError: true,
			Device:        "sim",
		},
	}
}

// loadConfig decodes the YAML file at s over the defaults. A missing file is
// only an error when it was asked for explicitly.
func loadConfig(s string, required bool) (Config, error) {
	config := defaultConfig()

	if s == "" {
		s = "config.yaml"
	}

	f, err := os.Open(s)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return config, nil
		}
		return config, errors.Join(err, errors.New("open config file "+s))
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return config, errors.Join(err, errors.New("decode config file "+s))
	}
	return config, nil
}
