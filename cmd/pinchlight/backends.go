package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ayusman/pinchlight/internal/brightness"
	"github.com/ayusman/pinchlight/internal/plugin"
	"github.com/spf13/cobra"
)

func newBackendsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List brightness backends and plugins available on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listBackends(cmd, opts)
		},
	}
}

func listBackends(cmd *cobra.Command, opts *options) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tAVAILABLE\tDETAIL")
	fmt.Fprintln(w, "-------\t---------\t------")
	for _, st := range brightness.Probe(brightness.OptionsFromConfig(opts.cfg, nil)) {
		avail := "no"
		if st.Available {
			avail = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.Backend, avail, st.Detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	mgr := plugin.NewManager(opts.cfg.PluginDir)
	if err := mgr.Discover(); err != nil {
		return fmt.Errorf("discover plugins in %s: %w", mgr.PluginDir(), err)
	}

	plugins := mgr.List()
	out := cmd.OutOrStdout()
	if len(plugins) == 0 {
		fmt.Fprintf(out, "\nNo plugins found in %s.\n", mgr.PluginDir())
		return nil
	}

	fmt.Fprintf(out, "\nPlugins in %s:\n", mgr.PluginDir())
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tBRIGHTNESS\tACTIONS")
	for _, p := range plugins {
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\n", p.Manifest.Name, p.Manifest.Version, p.HasAction(brightness.ActionSet), p.Manifest.Actions)
	}
	return w.Flush()
}
