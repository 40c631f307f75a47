// Command arduinosa plots live sweeps from an ArduinoSA 2.4 GHz spectrum
// analyser attached over a serial port.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/banshee-data/arduinosa/internal/app"
	"github.com/banshee-data/arduinosa/internal/arduinosa"
	"github.com/banshee-data/arduinosa/internal/config"
	"github.com/banshee-data/arduinosa/internal/display"
	"github.com/banshee-data/arduinosa/internal/serialport"
	"github.com/banshee-data/arduinosa/internal/version"
)

const farewell = "Interrupted, bye."

// runFunc executes a resolved configuration.
type runFunc func(ctx context.Context, cfg *config.Config) error

func runApp(ctx context.Context, cfg *config.Config) error {
	r := &app.Runner{Config: cfg}
	return r.Run(ctx)
}

func newRootCmd(v *viper.Viper, run runFunc) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "arduinosa",
		Short: "Plot live sweeps from an ArduinoSA spectrum analyser",
		Long: `arduinosa resets an ArduinoSA board over its serial port, checks its
identity and plots each 2.4 GHz sweep with the previous one as a dotted
ghost trace. --mode forever prints every sample instead; --mode single
prints one sweep and exits.`,
		Args:          cobra.NoArgs,
		Version:       version.String(),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// flags and arguments parsed fine; later errors are not usage errors
			cmd.SilenceUsage = true

			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (.json, .yaml, .yml or .toml)")
	flags.StringP("device", "d", "/dev/ttyUSB0", "serial device path")
	flags.IntP("baud", "b", serialport.DefaultBaudRate, "serial baud rate")
	flags.String("protocol", string(arduinosa.ProtocolJSON), "firmware protocol: json or text")
	flags.String("mode", config.ModePlot, "run mode: plot, forever or single")
	flags.String("display", config.DisplayPNG, "plot output: png, html or term")
	flags.StringP("output", "o", "", "output file for png and html displays (default arduinosa.<display>)")
	flags.Duration("interval", display.DefaultInterval, "pause between plotted sweeps")
	flags.Duration("read-timeout", serialport.DefaultReadTimeout, "serial read timeout")
	flags.Duration("reset-pulse", arduinosa.DefaultResetPulse, "DTR pulse length used to reset the board")
	flags.Duration("handshake-timeout", arduinosa.DefaultHandshakeTimeout, "read timeout for the boot line after a reset")
	flags.String("log-level", "info", "log level: trace, debug, info, warn or error")
	flags.String("dev", "", "replay sweeps from a fixture file instead of opening the device")

	if err := config.BindFlags(v, flags); err != nil {
		panic(err)
	}
	return cmd
}

// execute runs the command and returns the process exit status.
func execute(ctx context.Context, cmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stdout, farewell)
		return 0
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := execute(ctx, newRootCmd(viper.New(), runApp), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
