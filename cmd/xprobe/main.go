// Command xprobe connects to an X server at an explicit endpoint and
// reports what it finds: the setup information, the extensions on offer,
// and the events delivered to a test window.
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xgbnet/xgb"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

type options struct {
	network     string
	address     string
	authFile    string
	authDisplay string
	byteOrder   string
	timeout     time.Duration
	verbose     string

	log *logrus.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xprobe: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{log: logrus.New()}

	cmd := &cobra.Command{
		Use:   "xprobe",
		Short: "Inspect an X server over the wire",
		Long: `xprobe talks the X11 protocol to a server at an explicit endpoint.

It does not read DISPLAY: name the socket with --network and --address,
for example --network unix --address /tmp/.X11-unix/X0 or
--network tcp --address 10.0.0.2:6000.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.verbose)
			if err != nil {
				return err
			}
			opts.log.SetLevel(level)
			opts.log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.network, "network", "unix", "transport: unix, tcp, tcp4, tcp6 or vsock")
	flags.StringVar(&opts.address, "address", "/tmp/.X11-unix/X0", "socket path, host:port or cid:port")
	flags.StringVar(&opts.authFile, "auth-file", defaultAuthFile(), "Xauthority file; empty disables authorization")
	flags.StringVar(&opts.authDisplay, "auth-display", "", "display number to look up in the Xauthority file (default: taken from the address)")
	flags.StringVar(&opts.byteOrder, "byte-order", "lsb", "byte order for the connection: lsb or msb")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "time allowed for connecting")
	flags.StringVarP(&opts.verbose, "verbose", "v", "warning", "log level")

	cmd.AddCommand(
		infoCmd(opts),
		extCmd(opts),
		windowCmd(opts),
		versionCmd(),
	)
	return cmd
}

func defaultAuthFile() string {
	if p := os.Getenv("XAUTHORITY"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".Xauthority")
}

// connect dials the configured endpoint.
func (o *options) connect(ctx context.Context) (*xgb.Conn, error) {
	copts := []xgb.Option{xgb.WithLogger(o.log)}

	switch strings.ToLower(o.byteOrder) {
	case "":
	case "lsb", "little":
		copts = append(copts, xgb.WithByteOrder(binary.LittleEndian))
	case "msb", "big":
		copts = append(copts, xgb.WithByteOrder(binary.BigEndian))
	default:
		return nil, errors.Errorf("unknown byte order %q", o.byteOrder)
	}

	if name, data, ok := o.authority(); ok {
		copts = append(copts, xgb.WithAuth(name, data))
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return xgb.Dial(ctx, o.network, o.address, copts...)
}

// authority looks up the cookie for the endpoint. A missing file or entry
// is not an error: many servers accept unauthorized local clients.
func (o *options) authority() (name string, data []byte, ok bool) {
	if o.authFile == "" {
		return "", nil, false
	}
	family, address := authFamily(o.network, o.address)
	display := o.authDisplay
	if display == "" {
		display = displayNumber(o.network, o.address)
	}

	name, data, err := xgb.ReadAuthority(o.authFile, family, address, display)
	if err != nil {
		o.log.WithError(err).Debug("no authorization")
		return "", nil, false
	}
	o.log.WithFields(logrus.Fields{
		"file":     o.authFile,
		"protocol": name,
	}).Debug("using authorization")
	return name, data, true
}

func authFamily(network, address string) (uint16, string) {
	switch network {
	case "tcp", "tcp4", "tcp6":
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			break
		}
		ip := net.ParseIP(host)
		if ip == nil || ip.IsLoopback() {
			break
		}
		if ip4 := ip.To4(); ip4 != nil {
			return xgb.FamilyInternet, string(ip4)
		}
		return xgb.FamilyInternet6, string(ip.To16())
	}
	return xgb.FamilyLocal, ""
}

// displayNumber guesses the display from the usual endpoint shapes:
// /tmp/.X11-unix/X<n> and host:<6000+n>.
func displayNumber(network, address string) string {
	switch network {
	case "unix":
		base := filepath.Base(address)
		if strings.HasPrefix(base, "X") {
			return base[1:]
		}
	case "tcp", "tcp4", "tcp6":
		_, port, err := net.SplitHostPort(address)
		if err != nil {
			break
		}
		var n int
		if _, err := fmt.Sscanf(port, "%d", &n); err == nil && n >= 6000 {
			return fmt.Sprint(n - 6000)
		}
	}
	return "0"
}
