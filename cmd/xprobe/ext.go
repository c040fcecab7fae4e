package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/bigreq"
	"github.com/xgbnet/xgb/xcmisc"
	"github.com/xgbnet/xgb/xproto"
)

func extCmd(opts *options) *cobra.Command {
	var enable bool

	cmd := &cobra.Command{
		Use:   "ext [name...]",
		Short: "Resolve extensions",
		Long: `Resolve the named extensions, or every extension the server lists
when no names are given, and print their opcodes and event and error bases.

With --enable, BIG-REQUESTS and XC-MISC are also initialized and
exercised.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			if err := queryExtensions(ctx, cmd.OutOrStdout(), c, args); err != nil {
				return err
			}
			if enable {
				return enableExtensions(ctx, cmd.OutOrStdout(), c)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&enable, "enable", false, "initialize BIG-REQUESTS and XC-MISC")
	return cmd
}

func queryExtensions(ctx context.Context, w io.Writer, c *xgb.Conn, names []string) error {
	if len(names) == 0 {
		reply, err := xproto.ListExtensions(c).Reply()
		if err != nil {
			return errors.Wrap(err, "list extensions")
		}
		names = reply.Names
		sort.Strings(names)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPRESENT\tMAJOR\tFIRST EVENT\tFIRST ERROR")
	for _, name := range names {
		info, err := c.ResolveExtension(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "resolve %s", name)
		}
		if !info.Present {
			fmt.Fprintf(tw, "%s\tno\t-\t-\t-\n", name)
			continue
		}
		fmt.Fprintf(tw, "%s\tyes\t%d\t%d\t%d\n", name, info.MajorOpcode, info.FirstEvent, info.FirstError)
	}
	return tw.Flush()
}

func enableExtensions(ctx context.Context, w io.Writer, c *xgb.Conn) error {
	before := c.MaximumRequestLength()
	switch err := bigreq.InitContext(ctx, c); {
	case errors.Is(err, bigreq.ErrNotPresent):
		fmt.Fprintf(w, "%s: not present\n", bigreq.ExtName)
	case err != nil:
		return err
	default:
		fmt.Fprintf(w, "%s: maximum request length %d -> %d units\n",
			bigreq.ExtName, before, c.MaximumRequestLength())
	}

	switch err := xcmisc.InitContext(ctx, c); {
	case errors.Is(err, xcmisc.ErrNotPresent):
		fmt.Fprintf(w, "%s: not present\n", xcmisc.ExtName)
		return nil
	case err != nil:
		return err
	}

	version, err := xcmisc.GetVersion(c, xcmisc.MajorVersion, xcmisc.MinorVersion).ReplyContext(ctx)
	if err != nil {
		return errors.Wrap(err, "xcmisc: version")
	}
	ids, err := xcmisc.GetXIDRange(c).ReplyContext(ctx)
	if err != nil {
		return errors.Wrap(err, "xcmisc: id range")
	}
	fmt.Fprintf(w, "%s: version %d.%d, %d free ids from 0x%x\n", xcmisc.ExtName,
		version.ServerMajorVersion, version.ServerMinorVersion, ids.Count, ids.StartId)
	return nil
}
