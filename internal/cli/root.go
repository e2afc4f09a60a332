// Package cli implements the netkit command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-netkit/internal/config"
	"github.com/samvad-hq/samvad-netkit/internal/logger"
)

var version = "0.1.0"

// ConfigLoader returns the runtime configuration.
type ConfigLoader func() (*config.Config, error)

type env struct {
	out        io.Writer
	loadConfig ConfigLoader
}

// NewRootCmd builds the command tree writing results to out.
func NewRootCmd(out io.Writer, load ConfigLoader) *cobra.Command {
	e := &env{out: out, loadConfig: load}

	root := &cobra.Command{
		Use:           "netkit",
		Short:         "Build, deduplicate and stub JSON HTTP requests",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().Bool("metrics", false, "Print executor metrics after the request")

	root.AddCommand(newGetCmd(e), newPostCmd(e), newStubCmd(e), newVersionCmd(e))
	return root
}

// Execute runs the CLI against the process environment.
func Execute() error {
	err := NewRootCmd(os.Stdout, config.Load).Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the netkit version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(e.out, version)
		},
	}
}

// setup loads config and the logger.
func (e *env) setup() (*config.Config, logger.Logger, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// writeMetrics prints counters and gauges in name{labels} value form.
func writeMetrics(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)

			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			fmt.Fprintf(out, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}
