// Command viperctl talks to a Viper doorbell from the terminal:
// authorize, dump configuration and info, register users, and run the
// CTPP sequence that opens the door.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openviper/viperclient/internal/config"
	"github.com/openviper/viperclient/internal/discovery"
	"github.com/openviper/viperclient/viper"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	cfg     *config.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "viperctl",
	Short: "Client for Viper video doorbells",
	Long:  `Speaks the doorbell's TCP command protocol: channel management, JSON commands and the CTPP actuator sub-protocol.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

		if err := config.LoadEnvFile(".env"); err != nil {
			log.Warn().Err(err).Msg("env file")
		}
		cfg = config.Load()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("viperctl %s\n", Version)
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Probe the doorbell over UDP and print its identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		id, err := discovery.Scan(ctx, cfg.DoorbellIP)
		if err != nil {
			return err
		}
		return printJSON(id)
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Check whether the doorbell accepts connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		up := discovery.Poll(cfg.DoorbellIP, cfg.DoorbellPort, time.Second)
		return printJSON(map[string]bool{"available": up})
	},
}

var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Run the UAUT exchange with the configured token",
	RunE: withClient(func(client *viper.Client) error {
		resp, err := client.Authorize(cfg.Token)
		if err != nil {
			return err
		}
		return printJSON(resp)
	}),
}

var configCmd = &cobra.Command{
	Use:       "config [none|all]",
	Short:     "Fetch the doorbell configuration",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"none", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := "all"
		if len(args) == 1 {
			scope = args[0]
		}
		return connected(func(client *viper.Client) error {
			resp, err := client.Configuration(scope)
			if err != nil {
				return err
			}
			return printJSON(resp)
		})
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Fetch model, version and capabilities",
	RunE: withClient(func(client *viper.Client) error {
		resp, err := client.Info()
		if err != nil {
			return err
		}
		return printJSON(resp)
	}),
}

var frcgCmd = &cobra.Command{
	Use:   "frcg",
	Short: "Fetch the face-recognition parameters (opaque)",
	RunE: withClient(func(client *viper.Client) error {
		resp, err := client.FaceRecognitionParams()
		if err != nil {
			return err
		}
		return printJSON(resp)
	}),
}

var signUpCmd = &cobra.Command{
	Use:   "sign-up <email>",
	Short: "Register a user and print the minted token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return connected(func(client *viper.Client) error {
			resp, err := client.SignUp(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Your token is: %s\n", resp.UserToken)
			return nil
		})
	},
}

var removeUsersCmd = &cobra.Command{
	Use:   "remove-users <requester>",
	Short: "Remove every registered user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return connected(func(client *viper.Client) error {
			resp, err := client.RemoveAllUsers(args[0])
			if err != nil {
				return err
			}
			return printJSON(resp)
		})
	},
}

var openDoorCmd = &cobra.Command{
	Use:   "open-door",
	Short: "Authorize, fetch the address book and run the CTPP open sequence",
	RunE: withClient(func(client *viper.Client) error {
		auth, err := client.Authorize(cfg.Token)
		if err != nil {
			return err
		}
		if !auth.OK() {
			return fmt.Errorf("unauthorized: %s", auth.ResponseString)
		}

		conf, err := client.Configuration("all")
		if err != nil {
			return err
		}

		if err := client.OpenDoor(&conf.Vip); err != nil {
			return err
		}
		log.Info().Msg("door opened")
		return nil
	}),
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the doorbell and run the demo sequence when it wakes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		prev := false
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()

		for {
			up := discovery.Poll(cfg.DoorbellIP, cfg.DoorbellPort, time.Second)
			switch {
			case up && !prev:
				log.Info().Msg("connected")
				if err := demoSequence(); err != nil {
					log.Error().Err(err).Msg("demo sequence")
				}
			case !up && prev:
				log.Info().Msg("disconnected")
			case !up:
				log.Debug().Msg("idle")
			}
			prev = up

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

// demoSequence mirrors a full session as the vendor app performs it:
// authorize, both configuration scopes, info, face recognition, then
// the CTPP door-open bracketed by a CSPB channel.
func demoSequence() error {
	return connected(func(client *viper.Client) error {
		auth, err := client.Authorize(cfg.Token)
		if err != nil {
			return err
		}
		if !auth.OK() {
			return fmt.Errorf("unauthorized: %s", auth.ResponseString)
		}
		log.Info().Int("code", auth.ResponseCode).Msg("authorized")

		if _, err := client.Configuration("none"); err != nil {
			return err
		}
		conf, err := client.Configuration("all")
		if err != nil {
			return err
		}
		log.Info().Str("apt", conf.Vip.AptAddress).
			Int("doors", len(conf.Vip.UserParameters.OpendoorAddressBook)).
			Msg("configured")

		info, err := client.Info()
		if err != nil {
			return err
		}
		log.Info().Str("model", info.Model).Str("version", info.Version).Msg("info")

		if _, err := client.FaceRecognitionParams(); err != nil {
			return err
		}

		cspb, err := client.OpenChannel("CSPB")
		if err != nil {
			return err
		}
		if err := client.OpenDoor(&conf.Vip); err != nil {
			return err
		}
		return cspb.Close()
	})
}

// connected dials, runs fn and always shuts the transport down.
func connected(fn func(*viper.Client) error) error {
	client, err := viper.Connect(cfg.DoorbellIP, cfg.DoorbellPort)
	if err != nil {
		return err
	}
	defer client.Shutdown()

	client.HandshakeRetries = cfg.HandshakeRetries
	if verbose {
		client.OnFrame = func(payload []byte) {
			log.Debug().Hex("payload", payload).Msg("ctpp frame")
		}
	}
	return fn(client)
}

func withClient(fn func(*viper.Client) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return connected(fn)
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and CTPP frame dumps")
	rootCmd.AddCommand(versionCmd, scanCmd, pollCmd, authorizeCmd, configCmd,
		infoCmd, frcgCmd, signUpCmd, removeUsersCmd, openDoorCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
