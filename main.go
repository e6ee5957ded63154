package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Go-routine-4595/myo-rest-bridge/adapters/controller"
	devmqtt "github.com/Go-routine-4595/myo-rest-bridge/adapters/device/mqtt"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/device/sim"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/gateway/display"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/gateway/event-hub"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/gateway/mqtt"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/gateway/rabbitmq"
	"github.com/Go-routine-4595/myo-rest-bridge/adapters/gateway/rest"
	"github.com/Go-routine-4595/myo-rest-bridge/model"
	"github.com/Go-routine-4595/myo-rest-bridge/service"
)

var flags struct {
	config string
	host   string
	id     string
	device string
}

var rootCmd = &cobra.Command{
	Use:   "myo-rest-bridge [config.yaml]",
	Short: "Forward Myo armband events to a REST service",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			flags.config = args[0]
		}
		conf, err := loadConfig(flags.config, cmd.Flags().Changed("config") || len(args) == 1)
		if err != nil {
			processError(err, true)
		}
		applyFlags(cmd, &conf)
		run(conf)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&flags.config, "config", "config.yaml", "config file")
	rootCmd.Flags().StringVar(&flags.host, "host", "", "REST service base URL")
	rootCmd.Flags().StringVar(&flags.id, "id", "", "device id used for the lookup")
	rootCmd.Flags().StringVar(&flags.device, "device", "", "device source: sim or mqtt")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func applyFlags(cmd *cobra.Command, conf *Config) {
	if cmd.Flags().Changed("host") {
		conf.RestConfig.Host = flags.host
	}
	if cmd.Flags().Changed("id") {
		conf.RestConfig.DefaultID = flags.id
	}
	if cmd.Flags().Changed("device") {
		conf.ControllerConfig.Device = flags.device
	}
}

func run(conf Config) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		sig    chan os.Signal
		wg     *sync.WaitGroup
		logger zerolog.Logger
		err    error
	)

	wg = &sync.WaitGroup{}
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	logger = createLogger(conf.LogLevel)
	prompt := conf.ControllerConfig.PromptOnError

	sig = make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	gw := rest.NewRest(conf.RestConfig, conf.LogLevel)
	id, err := gw.LookupDevice(ctx, conf.RestConfig.DefaultID)
	if err != nil {
		processError(err, prompt)
	}
	logger.Info().Str("id", id).Msg("device record found")

	hub, closeHub, err := newHub(conf)
	if err != nil {
		processError(err, prompt)
	}
	defer closeHub()

	svc := service.NewService(conf.ForwarderConfig, logger, gw, newMirrors(ctx, wg, conf, id, logger)...)
	ctrl := controller.NewController(conf.ControllerConfig, hub, svc, display.NewDisplay(os.Stdout), logger)

	err = ctrl.Start(ctx)
	if err != nil {
		processError(err, prompt)
	}

	cancel()
	wg.Wait()
}

func newHub(conf Config) (model.IHub, func(), error) {
	switch conf.ControllerConfig.Device {
	case "", "sim":
		h, err := sim.NewHub(conf.SimConfig, conf.LogLevel)
		return h, func() {}, err
	case "mqtt":
		h := devmqtt.NewHub(conf.DeviceMqttConfig, conf.LogLevel)
		return h, h.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown device source %q", conf.ControllerConfig.Device)
}

// newMirrors builds the optional gateways that receive a copy of every
// forwarded record. A mirror that cannot start is logged and skipped.
func newMirrors(ctx context.Context, wg *sync.WaitGroup, conf Config, id string, logger zerolog.Logger) []model.IGateway {
	var mirrors []model.IGateway

	for _, name := range conf.Mirrors {
		switch name {
		case "display":
			mirrors = append(mirrors, display.NewDisplay(os.Stderr))
		case "mqtt":
			m, err := mqtt.NewMqtt(conf.MqttConf, conf.LogLevel, ctx, wg)
			if err != nil {
				logger.Error().Err(err).Msg("mqtt mirror disabled")
				continue
			}
			mirrors = append(mirrors, m)
		case "rabbitmq":
			r := rabbitmq.NewRabbitMQ(conf.RabbitMQConfig, conf.LogLevel)
			if err := r.Start(ctx, wg); err != nil {
				logger.Error().Err(err).Msg("rabbitmq mirror disabled")
				continue
			}
			mirrors = append(mirrors, r)
		case "event-hub":
			eh, err := event_hub.NewEventHub(ctx, wg, conf.EventHubConfig, id, logger)
			if err != nil {
				logger.Error().Err(err).Msg("event hub mirror disabled")
				continue
			}
			mirrors = append(mirrors, eh)
		default:
			logger.Warn().Str("mirror", name).Msg("unknown mirror ignored")
		}
	}
	return mirrors
}

func createLogger(logLevel int) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel+zerolog.Level(logLevel)).
		With().Timestamp().Logger()
}

// processError reports a fatal setup error, waits for enter when prompt is
// set and exits with status 1.
func processError(err error, prompt bool) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	if prompt {
		fmt.Fprint(os.Stderr, "Press enter to continue.")
		bufio.NewReader(os.Stdin).ReadString('\n')
	}
	os.Exit(1)
}
