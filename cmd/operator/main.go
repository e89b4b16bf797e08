// Command operator runs the escape-room workflow controller: it
// connects to the MQTT broker, builds the puzzle graph from a YAML
// room definition, and optionally serves a read-only dashboard over
// HTTP. Flag/env bootstrap is grounded on the teacher's cmd/main.go
// (RUN_SERVER/RUN_WORKER env-first toggles), adapted to flag.String
// with envutil defaults since this binary has no HTTP framework of its
// own driving flag parsing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ubilab-escape/operator/internal/bus"
	"github.com/ubilab-escape/operator/internal/controller"
	"github.com/ubilab-escape/operator/internal/dashboard"
	"github.com/ubilab-escape/operator/internal/definition"
	"github.com/ubilab-escape/operator/internal/observability"
	"github.com/ubilab-escape/operator/internal/platform/envutil"
	"github.com/ubilab-escape/operator/internal/platform/logger"
	"github.com/ubilab-escape/operator/internal/workflow"
)

func main() {
	os.Exit(run())
}

func run() int {
	workflowConfig := flag.String("workflow-config", envutil.String("WORKFLOW_CONFIG", "config/room.yaml"), "path to the YAML room definition")
	mqttHost := flag.String("mqtt-host", envutil.String("MQTT_HOST", "localhost"), "MQTT broker host")
	mqttPort := flag.Int("mqtt-port", envutil.Int("MQTT_PORT", 1883), "MQTT broker port")
	dashboardAddr := flag.String("dashboard-addr", envutil.String("DASHBOARD_ADDR", ""), "listen address for the read-only dashboard (empty disables it)")
	redisAddr := flag.String("redis-addr", envutil.String("REDIS_ADDR", ""), "Redis address for dashboard snapshot fan-out (empty disables fan-out)")
	mosquittoSubPath := flag.String("mosquitto-sub", envutil.String("MOSQUITTO_SUB_PATH", ""), "path to mosquitto_sub, used to purge retained state between sessions")
	topicPrefix := flag.String("topic-prefix", envutil.String("TOPIC_PREFIX", "op"), "MQTT topic prefix for control-plane topics")
	flag.Parse()

	logMode := envutil.String("LOG_MODE", "production")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "operator",
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("VERSION", "dev"),
	})
	defer shutdownOTel(context.Background())

	cfg, err := definition.Load(*workflowConfig)
	if err != nil {
		log.Error("failed to load workflow config", "error", err)
		return 1
	}

	var purger controller.Purger = controller.NoopPurger{}
	if *mosquittoSubPath != "" {
		purger = controller.ExecPurger{BinPath: *mosquittoSubPath, Host: *mqttHost}
	}

	transport := bus.NewMQTT(log, *mqttHost, *mqttPort, "operator-"+randSuffix())
	factory := definition.New(cfg)

	ctrl := controller.New(log, transport, factory, controller.Config{
		Topics:      controller.Topics{Prefix: *topicPrefix},
		Purger:      purger,
		TimerTick:   time.Second,
		OnGameOver:  onGameOver(cfg),
		DefaultOpts: cfg.DefaultOptions,
	})

	var dashSrv *dashboard.Server
	var dashBus dashboard.Bus = dashboard.NewNoopBus()
	if *redisAddr != "" {
		rb, err := dashboard.NewRedisBus(log, *redisAddr, "dashboard")
		if err != nil {
			log.Warn("dashboard redis fan-out disabled", "error", err)
		} else {
			dashBus = rb
		}
	}

	if *dashboardAddr != "" {
		hub := dashboard.NewHub(log)
		dashSrv = dashboard.NewServer(log, hub)
		ctrl.OnSnapshot(func(snapshot []byte) {
			hub.Broadcast(snapshot)
			_ = dashBus.Publish(ctx, snapshot)
		})
		if err := dashBus.StartForwarder(ctx, hub.Broadcast); err != nil {
			log.Warn("dashboard redis forwarder disabled", "error", err)
		}
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := ctrl.Connect(gctx); err != nil {
			return fmt.Errorf("connect bus: %w", err)
		}
		<-gctx.Done()
		ctrl.Disconnect()
		return nil
	})

	if dashSrv != nil {
		group.Go(func() error {
			errCh := make(chan error, 1)
			go func() { errCh <- dashSrv.Run(*dashboardAddr) }()
			select {
			case <-gctx.Done():
				return nil
			case err := <-errCh:
				return fmt.Errorf("dashboard server: %w", err)
			}
		})
	}

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		log.Error("operator exited with error", "error", err)
		return 1
	}
	log.Info("operator shut down cleanly")
	return 0
}

// onGameOver turns the lab and server room light strips red, restored
// from the final revision of workflow_controller.py. It publishes no
// game-over audio.
func onGameOver(cfg definition.RoomConfig) func(b workflow.Bus) {
	red := workflow.RGB{R: 255, G: 0, B: 0}
	return func(b workflow.Bus) {
		lights := []struct{ name, topic string }{
			{"lab north", cfg.Lights.LabNorth},
			{"lab south", cfg.Lights.LabSouth},
			{"lab middle", cfg.Lights.LabMiddle},
			{"server room", cfg.Lights.ServerRoom},
			{"door server room", cfg.Lights.DoorServer},
		}
		for _, l := range lights {
			workflow.NewSingleLight("game over: "+l.name, l.topic, red, 255, true).Execute(b)
		}
	}
}

func randSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%1_000_000)
}
