package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/denwilliams/go-wled-race/internal/logging"
	"github.com/denwilliams/go-wled-race/internal/mqtt"
	"github.com/denwilliams/go-wled-race/internal/plugin"
	"github.com/denwilliams/go-wled-race/internal/race"
	"github.com/denwilliams/go-wled-race/internal/web"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wled-race",
		Short: "Drive a WLED matrix from race events",
		Long: `wled-race listens for race lifecycle events over MQTT or HTTP and
shows them on a WLED LED matrix.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the MQTT listener and HTTP server",
		RunE:  runServe,
	})

	root.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Test the connection to the configured WLED device",
		Args:  cobra.NoArgs,
		RunE:  runTest,
	})

	sendCmd := &cobra.Command{
		Use:   "send <event>",
		Short: "Play the lighting sequence for one event (stage, start, stop, lap)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSend,
	}
	sendCmd.Flags().String("color", "", "pilot color for lap events (name, #RRGGBB or packed integer)")
	root.AddCommand(sendCmd)

	return root
}

func runServe(cmd *cobra.Command, args []string) error {
	var mc *mqtt.MQTTClient
	notifiers := plugin.MultiNotifier{plugin.LogNotifier{}}
	// notifiers gains the MQTT client once the broker URL is known.
	a, err := newApp(plugin.NotifierFunc(func(message string) {
		notifiers.Notify(message)
	}))
	if err != nil {
		return err
	}
	defer logging.Sync()

	mu, err := a.cfg.MQTTURL()
	if err != nil {
		return err
	}
	if mu != nil {
		mc = mqtt.NewMQTTClient(mu, a.cfg.MQTTTopicPrefix)
		notifiers = append(notifiers, mc)
	}

	a.manager.Initialize()
	defer a.manager.Teardown()

	if mc != nil {
		if err := mc.Connect(a.manager.Bus(), a.manager); err != nil {
			return err
		}
		defer mc.Disconnect()
	} else {
		logging.Info("MQTT_URI not set, MQTT disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.manager.Run(ctx)
		return nil
	})

	if a.cfg.Port > 0 {
		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", a.cfg.Port),
			Handler: web.CreateHandler(a.manager),
		}
		g.Go(func() error {
			logging.Info("Starting HTTP server on port %d", a.cfg.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("error running http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if a.manager.Status().Address != "" {
		go a.manager.TestConnection(ctx)
	}

	logging.Info("Ready")
	err = g.Wait()
	logging.Info("Terminating")
	return err
}

func runTest(cmd *cobra.Command, args []string) error {
	a, err := newApp(plugin.NotifierFunc(func(message string) {
		fmt.Fprintln(cmd.OutOrStdout(), message)
	}))
	if err != nil {
		return err
	}
	defer logging.Sync()

	return a.manager.TestConnection(cmd.Context())
}

func runSend(cmd *cobra.Command, args []string) error {
	kind, err := race.ParseEventKind(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer logging.Sync()

	eventArgs := race.Args{}
	if c, _ := cmd.Flags().GetString("color"); c != "" {
		eventArgs["color"] = c
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.manager.Trigger(ctx, kind, eventArgs); err != nil {
		return err
	}
	st := a.manager.Status().Runner
	if st.Failed > 0 {
		return fmt.Errorf("%d of the %s commands failed to reach %s", st.Failed, kind, a.manager.Status().Address)
	}
	return nil
}
