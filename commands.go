package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jadenpxrk/monofile/pkg/export"
	"github.com/jadenpxrk/monofile/pkg/insight"
	"github.com/jadenpxrk/monofile/pkg/pipeline"
	"github.com/jadenpxrk/monofile/pkg/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the monofile version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "monofile %s\n", version)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved projects, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return printRecords(cmd.OutOrStdout(), records)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id|project>",
	Short: "Print a saved project's document, summary or AI context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		artifact, _ := cmd.Flags().GetString("artifact")
		out, _ := cmd.Flags().GetString("file")

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := findRecord(cmd.Context(), st, args[0])
		if err != nil {
			return err
		}
		if artifact == "concepts" {
			for _, c := range rec.Outputs.Concepts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.Name, c.Description)
			}
			return nil
		}
		content, err := export.Content(rec.Outputs, export.Artifact(artifact))
		if err != nil {
			return err
		}
		return emit(cmd, content, out)
	},
}

var recreateCmd = &cobra.Command{
	Use:   "recreate <id|project>",
	Short: "Generate a blueprint for rebuilding selected concepts of a saved project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, _ := cmd.Flags().GetStringSlice("concept")
		out, _ := cmd.Flags().GetString("file")

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := findRecord(cmd.Context(), st, args[0])
		if err != nil {
			return err
		}
		selected, err := selectConcepts(rec.Outputs.Concepts, names)
		if err != nil {
			return err
		}

		gem, err := newGemini(cmd.Context())
		if err != nil {
			return err
		}
		blueprint, err := gem.RecreateFeature(cmd.Context(), rec.Outputs.Flattened, selected)
		if err != nil {
			return err
		}
		return emit(cmd, blueprint, out)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <id|project> <question...>",
	Short: "Ask Gemini a question about a saved project",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bridges, _ := cmd.Flags().GetStringSlice("bridge")

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := findRecord(cmd.Context(), st, args[0])
		if err != nil {
			return err
		}
		var bridged []insight.BridgedProject
		for _, ref := range bridges {
			other, err := findRecord(cmd.Context(), st, ref)
			if err != nil {
				return fmt.Errorf("bridge %s: %w", ref, err)
			}
			bridged = append(bridged, insight.BridgedProject{Name: other.ProjectName, Summary: other.Outputs.Summary})
		}

		gem, err := newGemini(cmd.Context())
		if err != nil {
			return err
		}
		answer, err := gem.Ask(cmd.Context(), rec.ProjectName, rec.Outputs.Flattened, bridged, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	listCmd.Flags().Int("limit", 20, "Maximum number of projects to list")

	showCmd.Flags().String("artifact", string(export.ArtifactFlattened), "flattened, summary, context or concepts")
	showCmd.Flags().StringP("file", "f", "", "Write to this file instead of stdout")

	recreateCmd.Flags().StringSlice("concept", nil, "Concept names to rebuild (default all)")
	recreateCmd.Flags().StringP("file", "f", "", "Write the blueprint to this file instead of stdout")

	askCmd.Flags().StringSlice("bridge", nil, "Other saved projects whose summaries are shared as context")
}

// openStore opens the configured database, creating the default SQLite directory on first use.
func openStore(ctx context.Context) (*store.SQLStore, error) {
	dsn := viper.GetString("database_dsn")
	if dsn == "" {
		dsn = defaultDSN()
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("error creating data directory: %w", err)
		}
	}
	return store.Open(ctx, dsn, store.Options{Logger: logger})
}

func newGemini(ctx context.Context) (*insight.Gemini, error) {
	return insight.NewGemini(ctx, insight.Options{
		APIKey:        viper.GetString("gemini_api_key"),
		FastModel:     viper.GetString("gemini.fast_model"),
		SmartModel:    viper.GetString("gemini.smart_model"),
		FallbackModel: viper.GetString("gemini.fallback_model"),
		Logger:        logger,
	})
}

// findRecord resolves a numeric ID or, failing that, the latest snapshot of a project name.
func findRecord(ctx context.Context, st *store.SQLStore, ref string) (store.Record, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return st.Get(ctx, id)
	}
	return st.Latest(ctx, ref)
}

// selectConcepts picks concepts by case-insensitive name or ID. No names selects all.
func selectConcepts(all []pipeline.Concept, names []string) ([]pipeline.Concept, error) {
	if len(names) == 0 {
		if len(all) == 0 {
			return nil, fmt.Errorf("project has no concepts; run it with --ai first")
		}
		return all, nil
	}
	var out []pipeline.Concept
	for _, n := range names {
		found := false
		for _, c := range all {
			if strings.EqualFold(c.Name, n) || c.ID == n {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown concept %q", n)
		}
	}
	return out, nil
}

func printRecords(w io.Writer, records []store.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROJECT\tFILES\tLINES\tSIZE\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n", r.ID, r.ProjectName, r.TotalFiles, r.TotalLines, r.TotalSize, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// emit writes content to path, or to stdout when path is empty.
func emit(cmd *cobra.Command, content, path string) error {
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), content)
		return nil
	}
	if err := export.WriteFile(path, content, logger); err != nil {
		return err
	}
	logger.Info("Output saved", zap.String("path", path))
	fmt.Fprintf(cmd.ErrOrStderr(), "Output saved to %s\n", path)
	return nil
}
