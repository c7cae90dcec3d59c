// Command gomasq reads a Yosys-style JSON netlist, applies order-th
// order Boolean masking to its MASQ-annotated secure signals, and
// writes the pre- and post-masking circuits as DOT graphs.
package main

import (
	"fmt"
	"os"

	"github.com/gomasq/gomasq/pkg/celllib"
	"github.com/gomasq/gomasq/pkg/circuit"
	"github.com/gomasq/gomasq/pkg/dotdump"
	"github.com/gomasq/gomasq/pkg/ingest"
	"github.com/gomasq/gomasq/pkg/maskerr"
	"github.com/gomasq/gomasq/pkg/masking"
	"github.com/gomasq/gomasq/pkg/netlist"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	order    int
	top      string
	outDir   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "gomasq <netlist.json>",
		Short:         "Transform a gate-level netlist into a Boolean-masked circuit",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.order, "order", "n", 1, "masking order (num_shares = order+1)")
	flags.StringVar(&opts.top, "top", "", "top module name (default: autodetect)")
	flags.StringVar(&opts.outDir, "out-dir", ".", "directory to write DOT output into")
	flags.StringVar(&opts.logLevel, "log-level", defaultLogLevel(), "log level (debug, info, warn, error)")
	return cmd
}

func defaultLogLevel() string {
	if v := os.Getenv("GOMASQ_LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}

func run(path string, opts *options) (err error) {
	log := logrus.New()
	level, parseErr := logrus.ParseLevel(opts.logLevel)
	if parseErr != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	defer func() {
		if r := recover(); r != nil {
			err = maskerr.RecoverInvariantViolation(r)
		}
	}()

	raw, ferr := os.ReadFile(path)
	if ferr != nil {
		return maskerr.Wrap(maskerr.NewIOError("read netlist", ferr), "file I/O boundary")
	}

	doc, derr := netlist.Decode(raw)
	if derr != nil {
		return maskerr.Wrap(maskerr.NewInputFormatError(path, derr.Error()), "netlist decode boundary")
	}

	lib := celllib.New()
	c, ierr := ingest.Build(doc, lib, opts.top, log)
	if ierr != nil {
		return maskerr.Wrap(ierr, "ingestion boundary: building circuit from "+path)
	}

	origPath := fmt.Sprintf("%s/%s_orig.dot", opts.outDir, c.Name)
	if werr := writeDot(c, origPath); werr != nil {
		return werr
	}
	log.WithField("path", origPath).Info("wrote pre-masking DOT graph")

	masking.Mask(c, opts.order, log)

	maskedPath := fmt.Sprintf("%s/%s.dot", opts.outDir, c.Name)
	if werr := writeDot(c, maskedPath); werr != nil {
		return werr
	}
	log.WithField("path", maskedPath).Info("wrote masked DOT graph")

	return nil
}

func writeDot(c *circuit.Circuit, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return maskerr.Wrap(maskerr.NewIOError("create "+path, err), "file I/O boundary")
	}
	defer f.Close()
	if err := dotdump.Write(f, c, c.Name); err != nil {
		return maskerr.Wrap(maskerr.NewIOError("write "+path, err), "file I/O boundary")
	}
	return nil
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		exitCode := 1
		if _, ok := err.(*maskerr.InvariantViolationError); ok {
			exitCode = 2
		}
		fmt.Fprintln(os.Stderr, "gomasq:", err)
		os.Exit(exitCode)
	}
}
