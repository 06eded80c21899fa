package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/waygraph/waygraph/pkg/cache"
	"github.com/waygraph/waygraph/pkg/osmxml"
)

// cacheTTL bounds how long a parsed summary stays valid. The key already
// includes the file's size and mtime, so this only caps stale entries from
// files that were deleted.
const cacheTTL = 30 * 24 * time.Hour

// inspectSummary is the cached digest of one parsed file.
type inspectSummary struct {
	Version   string         `json:"version"`
	Generator string         `json:"generator"`
	Counts    map[string]int `json:"counts"`
}

// newInspectCmd creates the "inspect" command: parse an OSM XML file and
// print a summary of its contents. Summaries are cached by path and file
// fingerprint so repeated inspection of large extracts stays cheap.
func newInspectCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "inspect <file.osm[.gz|.bz2]>",
		Short: "Summarize the contents of an OSM XML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			settings := settingsFromContext(cmd.Context())
			path := args[0]

			store := openCache(settings.CacheDir)
			defer store.Close()

			key, err := fileKey(path)
			if err != nil {
				return err
			}

			if !refresh {
				if summary, ok := cachedSummary(cmd.Context(), store, key); ok {
					printSummary(summary, true)
					return nil
				}
			}

			spin := newSpinner(cmd.Context(), "Parsing "+path)
			spin.Start()
			doc, err := osmxml.ParseFile(path, logger)
			if err != nil {
				spin.StopWithError(err.Error())
				return err
			}
			spin.Stop()

			summary := inspectSummary{
				Version:   doc.Version,
				Generator: doc.Generator,
				Counts:    doc.Summary(),
			}
			storeSummary(cmd.Context(), store, key, summary, logger)
			printSummary(summary, false)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-parse even when a cached summary exists")
	return cmd
}

// openCache returns a file cache at dir, or a null cache when dir is empty or
// unusable.
func openCache(dir string) cache.Cache {
	if dir == "" {
		return cache.NewNullCache()
	}
	store, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return store
}

// fileKey derives the cache key from the file's path and fingerprint.
func fileKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return cache.DocumentKey(path, info.Size(), info.ModTime()), nil
}

func cachedSummary(ctx context.Context, store cache.Cache, key string) (inspectSummary, bool) {
	data, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return inspectSummary{}, false
	}
	var summary inspectSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return inspectSummary{}, false
	}
	return summary, true
}

func storeSummary(ctx context.Context, store cache.Cache, key string, summary inspectSummary, logger *log.Logger) {
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := store.Set(ctx, key, data, cacheTTL); err != nil {
		logger.Debug("cache write failed", "err", err)
	}
}

func printSummary(s inspectSummary, cached bool) {
	printKeyValue("version", s.Version)
	printKeyValue("generator", s.Generator)
	printKeyValue("nodes", fmt.Sprintf("%d", s.Counts["node"]))
	printKeyValue("ways", fmt.Sprintf("%d", s.Counts["way"]))
	printKeyValue("relations", fmt.Sprintf("%d", s.Counts["relation"]))
	if cached {
		printDetail("summary served from cache, use --refresh to re-parse")
	}
}
