package view

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"

	"github.com/oculab/visor/internal/logging"
	"github.com/oculab/visor/internal/render"
	"github.com/oculab/visor/internal/session"
	"github.com/oculab/visor/internal/status"
	"github.com/oculab/visor/internal/viewer"
	"github.com/oculab/visor/internal/xr"
	"github.com/oculab/visor/pkg/mqttclient"
)

const configFlagName = "config"

// Command returns a view command.
func Command() *cli.Command {
	ctx := context.Background()

	var (
		logger zerolog.Logger

		mc mqtt.Client

		mqttConfigOptions    mqttclient.ConfigOptions
		sessionConfigOptions session.ConfigOptions
		statusConfigOptions  status.ConfigOptions
		refreshHz            int
	)

	flags := func() (flags []cli.Flag) {
		for _, v := range [][]cli.Flag{
			loadConfigFlag(),
			signalFlags(&sessionConfigOptions),
			webRTCFlags(&sessionConfigOptions.WebRTCConfigOptions),
			statusFlags(&statusConfigOptions),
			mqttFlags(&mqttConfigOptions),
			viewFlags(&refreshHz),
		} {
			flags = append(flags, v...)
		}
		return
	}()

	return &cli.Command{
		Name:  "view",
		Usage: "view connects to a teleoperation server and runs the headset session",
		Flags: flags,
		Before: func(c *cli.Context) error {
			if err := altsrc.InitInputSourceWithContext(
				flags,
				altsrc.NewTomlSourceFromFlagFunc(configFlagName),
			)(c); err != nil {
				return err
			}

			// Set up logger.
			debug := c.Bool("debug")
			logging.SetDebugMod(debug)
			logger = log.With().Str("service", "visor").Str("command", "view").Logger()
			ctx = logger.WithContext(ctx)

			// Telemetry broker is optional; a headset without one still runs.
			if mqttConfigOptions.Server != "" {
				mc = mqttclient.NewClient(ctx, mqttConfigOptions)
				if err := mqttclient.CheckConnectivity(mc, 3*time.Second); err != nil {
					return err
				}
				ctx = mqttclient.WithContext(ctx, mc)
			}

			return nil
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			reporter := status.NewReporter(ctx, statusConfigOptions)
			reporter.Serve()

			sess := session.New(ctx, sessionConfigOptions, session.WithNotify(reporter.Set))
			if err := sess.Start(ctx); err != nil {
				return err
			}
			defer sess.Close()

			pipeline := render.New(render.Nop(), render.DefaultPlacements(), &logger)
			host := xr.NewHeadless(refreshHz)

			return viewer.New(ctx, host, sess, pipeline).Run(ctx)
		},
		After: func(c *cli.Context) error {
			logger.Info().Msg("exits")
			return nil
		},
	}
}

// loadConfigFlag sets a config file path for app command.
// Note: you can't set any other flags' `Required` value to `true`,
// As it conflicts with this flag. You can set only either this flag or specifically the other flags but not both.
func loadConfigFlag() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        configFlagName,
			Aliases:     []string{"c"},
			Usage:       "Config file path",
			Value:       "config/config.toml",
			DefaultText: "config/config.toml",
		},
	}
}

func signalFlags(options *session.ConfigOptions) []cli.Flag {
	return []cli.Flag{
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:        "signal.url",
			Usage:       "WebSocket URL of the teleoperation signaling endpoint",
			Value:       "ws://localhost:8000/ws/signaling",
			DefaultText: "ws://localhost:8000/ws/signaling",
			Destination: &options.SignalURL,
		}),
	}
}

func webRTCFlags(options *session.WebRTCConfigOptions) []cli.Flag {
	return []cli.Flag{
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:        "webrtc.ice_server",
			Usage:       "ICE server address for webRTC",
			Value:       "stun:stun.l.google.com:19302",
			DefaultText: "stun:stun.l.google.com:19302",
			Destination: &options.ICEServer,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:        "webrtc.ice_server_username",
			Usage:       "ICE server username for webRTC",
			Value:       "",
			DefaultText: "",
			Destination: &options.Username,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:        "webrtc.ice_server_credential",
			Usage:       "ICE server credential for webRTC",
			Value:       "",
			DefaultText: "",
			Destination: &options.Credential,
		}),
	}
}

func statusFlags(options *status.ConfigOptions) []cli.Flag {
	return []cli.Flag{
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:        "status.topic_prefix",
			Usage:       "MQTT topic prefix for session status reports",
			Value:       "/visor/status",
			DefaultText: "/visor/status",
			Destination: &options.Topic,
		}),
		altsrc.NewUintFlag(&cli.UintFlag{
			Name:        "status.qos",
			Usage:       "MQTT client qos for session status reports",
			Value:       0,
			DefaultText: "0",
			Destination: &options.Qos,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:        "status.http_addr",
			Usage:       "Local listen address of the status HTTP endpoint, empty disables it",
			Value:       "",
			Destination: &options.HTTPAddr,
		}),
	}
}

func mqttFlags(options *mqttclient.ConfigOptions) []cli.Flag {
	return []cli.Flag{
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:        "mqtt.server",
			Usage:       "MQTT server address, empty disables telemetry",
			Value:       "",
			Destination: &options.Server,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:        "mqtt.clientID",
			Usage:       "MQTT client id",
			Value:       "visor",
			DefaultText: "visor",
			Destination: &options.ClientID,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:        "mqtt.username",
			Usage:       "MQTT broker username",
			Value:       "",
			Destination: &options.Username,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:        "mqtt.password",
			Usage:       "MQTT broker password",
			Value:       "",
			Destination: &options.Password,
		}),
	}
}

func viewFlags(refreshHz *int) []cli.Flag {
	return []cli.Flag{
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:        "view.refresh_hz",
			Usage:       "Frame rate of the headless frame clock, real headsets pace themselves",
			Value:       72,
			DefaultText: "72",
			Destination: refreshHz,
		}),
	}
}
