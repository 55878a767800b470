package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/zberg/go-ecodevices/internal/config"
	"github.com/zberg/go-ecodevices/internal/homeassistant"
	"github.com/zberg/go-ecodevices/internal/server"
	"github.com/zberg/go-ecodevices/pkg/ecodevices"
)

var (
	configPath string
	verbose    bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	flags.String("host", "", "Host or IP address of the Eco-Devices unit")
	flags.Int("port", 80, "HTTP port of the Eco-Devices unit")
	flags.String("user", "", "HTTP Basic username")
	flags.String("password", "", "HTTP Basic password")
	flags.Duration("timeout", 10*time.Second, "Request timeout")
	flags.String("profile", "single", "Device profile (single, split)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	teleinfoCmd.Flags().Bool("legacy", false, "Only show the four legacy fields")
	discoverCmd.Flags().Duration("scan-timeout", 5*time.Second, "Overall discovery timeout")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(teleinfoCmd)
	rootCmd.AddCommand(counterCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(serveCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show firmware version and MAC address",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)
		defer client.Close()

		id, err := client.FetchIdentity(cmd.Context())
		if err != nil {
			fail("Error getting device info: %v", err)
		}
		fmt.Printf("Firmware version: %s\n", deref(id.Version))
		fmt.Printf("MAC address:      %s\n", deref(id.MAC))
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the device answers",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)
		defer client.Close()

		if !client.Ping(cmd.Context()) {
			fmt.Printf("%s did not answer.\n", client.Host())
			client.Close()
			os.Exit(1)
		}
		fmt.Printf("%s is alive.\n", client.Host())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Dump every value the device exposes",
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := getClient(cmd)
		defer client.Close()

		status, err := client.GlobalGet(cmd.Context())
		if err != nil {
			fail("Error getting status: %v", err)
		}
		printJSON(status)
	},
}

var teleinfoCmd = &cobra.Command{
	Use:   "teleinfo [1|2]",
	Short: "Show a teleinformation channel",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ch, err := ecodevices.ParseChannel(args[0])
		if err != nil {
			fail("Invalid channel '%s': must be 1 or 2", args[0])
		}
		legacy, _ := cmd.Flags().GetBool("legacy")

		client, _ := getClient(cmd)
		defer client.Close()

		reading, err := client.Teleinfo(cmd.Context(), ch)
		if err != nil {
			fail("Error getting teleinfo %d: %v", ch, err)
		}
		if legacy {
			printJSON(reading.Legacy())
			return
		}
		printJSON(reading)
	},
}

var counterCmd = &cobra.Command{
	Use:   "counter [1|2]",
	Short: "Show a pulse counter channel",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ch, err := ecodevices.ParseChannel(args[0])
		if err != nil {
			fail("Invalid channel '%s': must be 1 or 2", args[0])
		}

		client, _ := getClient(cmd)
		defer client.Close()

		reading, err := client.Counter(cmd.Context(), ch)
		if err != nil {
			fail("Error getting counter %d: %v", ch, err)
		}
		printJSON(reading)
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover Eco-Devices units on the local network",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		scanTimeout, _ := cmd.Flags().GetDuration("scan-timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
		defer cancel()

		fmt.Println("Discovering devices...")
		results, err := ecodevices.Discover(ctx,
			ecodevices.WithPort(cfg.Device.Port),
			ecodevices.WithCredentials(cfg.Device.Username, cfg.Device.Password),
		)
		if err != nil {
			fmt.Printf("Error discovering: %v\n", err)
			return
		}

		if len(results) == 0 {
			fmt.Println("No devices found.")
			return
		}

		for _, res := range results {
			fmt.Printf("Found device at: %s (MAC %s, firmware %s)\n", res.Host, deref(res.Identity.MAC), deref(res.Identity.Version))
		}
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Read the device once and publish Home Assistant sensors over MQTT",
	Run: func(cmd *cobra.Command, args []string) {
		client, cfg := getClient(cmd)
		defer client.Close()
		logger := newLogger()

		mqttOpts, err := cfg.MQTT.ClientOptions(logger)
		if err != nil {
			fail("Invalid MQTT configuration: %v", err)
		}

		snapshot, err := homeassistant.Collect(cmd.Context(), client)
		if err != nil {
			fail("Error reading device: %v", err)
		}

		mqttClient := mqtt.NewClient(mqttOpts)
		if t := mqttClient.Connect(); t.Wait() && t.Error() != nil {
			fail("MQTT connection error: %v", t.Error())
		}
		defer mqttClient.Disconnect(250)

		ha := homeassistant.NewClient(mqttClient, cfg.MQTT.DiscoveryPrefix, cfg.MQTT.TopicPrefix, logger)
		if err := ha.Publish(snapshot); err != nil {
			fmt.Printf("Error publishing: %v\n", err)
			return
		}
		fmt.Println("Readings published.")
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve device readings as JSON over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		client, cfg := getClient(cmd)
		defer client.Close()
		logger := newLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           server.New(client, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error shutting down HTTP server", "error", err)
			}
		}()

		logger.Info("listening", "addr", srv.Addr, "device", client.Host())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fail("HTTP server error: %v", err)
		}
	},
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fail("Error loading configuration: %v", err)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Device.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Device.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("user") {
		cfg.Device.Username, _ = flags.GetString("user")
	}
	if flags.Changed("password") {
		cfg.Device.Password, _ = flags.GetString("password")
	}
	if flags.Changed("timeout") {
		cfg.Device.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("profile") {
		cfg.Device.Profile, _ = flags.GetString("profile")
	}
	return cfg
}

func getClient(cmd *cobra.Command) (*ecodevices.Client, *config.Config) {
	cfg := loadConfig(cmd)
	if err := cfg.Validate(); err != nil {
		fail("%v. Use --host or a configuration file, or run discover first.", err)
	}

	opts, err := cfg.Device.ClientOptions(newLogger())
	if err != nil {
		fail("Invalid device configuration: %v", err)
	}

	client, err := ecodevices.NewClient(cfg.Device.Host, opts...)
	if err != nil {
		fail("Error creating client for %s: %v", cfg.Device.Host, err)
	}
	return client, cfg
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("Error encoding output: %v", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func fail(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}
