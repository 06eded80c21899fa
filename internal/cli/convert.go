package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/waygraph/waygraph/pkg/errors"
	"github.com/waygraph/waygraph/pkg/graphml"
	"github.com/waygraph/waygraph/pkg/osmxml"
)

// newConvertCmd creates the "convert" command: export a GraphML street
// network as OSM XML.
func newConvertCmd() *cobra.Command {
	var (
		merge         bool
		onewayDefault bool
		precision     int
		apiVersion    string
		workers       int
		aggSpecs      []string
	)

	cmd := &cobra.Command{
		Use:   "convert <input.graphml> <output.osm>",
		Short: "Export a GraphML street network as OSM XML",
		Long: `Load a GraphML street network and write it in the OSM XML interchange
format. Edges that were split from one original way are merged back into
single way records by their shared membership id, with traversal order
recovered from the fragments. The export is lossy: geometry and attributes
outside the configured column lists are dropped.

Tag aggregation operators resolve conflicting per-edge values when ways
merge, given as --agg tag=op where op is one of sum, mean, first, min, max.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			settings := settingsFromContext(cmd.Context())
			input, output := args[0], args[1]

			aggs, err := parseAggSpecs(aggSpecs)
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			g, err := graphml.Load(graphml.LoadOptions{Path: input, Logger: logger})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Loaded %s", input))

			opts := osmxml.BuildOptions{
				NodeAttrs:     settings.Export.NodeAttrs,
				NodeTags:      settings.Export.NodeTags,
				WayAttrs:      settings.Export.WayAttrs,
				WayTags:       settings.Export.WayTags,
				OnewayDefault: onewayDefault || settings.Export.OnewayDefault,
				MergeEdges:    merge,
				TagAggs:       aggs,
				APIVersion:    apiVersion,
				Precision:     precision,
				Workers:       workers,
				Logger:        logger,
			}
			if opts.APIVersion == "" {
				opts.APIVersion = settings.Export.APIVersion
			}
			if opts.Precision == 0 {
				opts.Precision = settings.Export.Precision
			}

			spin := newSpinner(cmd.Context(), "Writing "+output)
			spin.Start()
			err = osmxml.SaveGraphXML(g, output, opts)
			if err != nil {
				spin.StopWithError(err.Error())
				return err
			}
			spin.StopWithSuccess(fmt.Sprintf("Converted %s", input))

			printFile(output)
			printStats(g.NodeCount(), g.EdgeCount(), false)
			return nil
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", true, "merge split edges back into single way records")
	cmd.Flags().BoolVar(&onewayDefault, "oneway-default", false, "oneway value for edges that carry none")
	cmd.Flags().IntVar(&precision, "precision", 0, "coordinate decimal places (default from config)")
	cmd.Flags().StringVar(&apiVersion, "api-version", "", "schema version for the document root (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent way-group workers (0 = serial)")
	cmd.Flags().StringArrayVar(&aggSpecs, "agg", nil, "tag aggregation as tag=op (repeatable)")
	return cmd
}

// parseAggSpecs parses repeated tag=op flag values.
func parseAggSpecs(specs []string) ([]osmxml.AggSpec, error) {
	out := make([]osmxml.AggSpec, 0, len(specs))
	for _, s := range specs {
		tag, op, ok := strings.Cut(s, "=")
		if !ok || tag == "" || op == "" {
			return nil, errors.New(errors.ErrCodeInvalidArgument, "malformed aggregation %q, want tag=op", s)
		}
		if _, known := osmxml.AggByName(op); !known {
			return nil, errors.New(errors.ErrCodeInvalidArgument, "unknown aggregation operator %q", op)
		}
		out = append(out, osmxml.AggSpec{Tag: tag, Op: op})
	}
	return out, nil
}
