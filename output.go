package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/export"
	"github.com/jadenpxrk/monofile/pkg/flatten"
	"github.com/jadenpxrk/monofile/pkg/pipeline"
	"github.com/jadenpxrk/monofile/pkg/source"
	"github.com/jadenpxrk/monofile/pkg/stats"
	"github.com/jadenpxrk/monofile/pkg/tokenize"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// runOptions is the effective configuration of one ingest command, after viper has merged
// defaults, the config file, the environment and flags.
type runOptions struct {
	include, exclude string
	maxSize          int64
	maxDepth         int
	noIgnore         bool

	outputFile string
	clipboard  bool
	pdfFile    string
	tree       bool
	s3         bool
	sync       bool

	tokens         bool
	tokenizer      string
	tokenizerModel string
	tokenizerFile  string

	linkDepth int
	ai        bool
}

func optionsFromConfig() runOptions {
	opts := runOptions{
		include:        viper.GetString("include"),
		exclude:        viper.GetString("exclude"),
		maxSize:        viper.GetInt64("max_size"),
		maxDepth:       viper.GetInt("max_depth"),
		noIgnore:       viper.GetBool("no_ignore"),
		outputFile:     viper.GetString("file"),
		clipboard:      viper.GetBool("clipboard"),
		pdfFile:        viper.GetString("pdf"),
		tree:           viper.GetBool("tree"),
		s3:             viper.GetBool("s3_upload"),
		sync:           viper.GetBool("sync"),
		tokens:         !viper.GetBool("no_tokens"),
		tokenizer:      viper.GetString("tokenizer"),
		tokenizerModel: viper.GetString("model"),
		tokenizerFile:  viper.GetString("tokenizer_file"),
		ai:             viper.GetBool("ai"),
	}
	if opts.exclude == "" {
		opts.exclude = strings.Join(viper.GetStringSlice("default_excludes"), ",")
	}
	if viper.GetBool("traverse_links") {
		opts.linkDepth = viper.GetInt("link_depth")
	}
	return opts
}

// runIngest is the root command: resolve paths, run the pipeline, route the outputs.
func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	opts := optionsFromConfig()
	cls, err := loadClassifier()
	if err != nil {
		return err
	}

	paths := args
	if viper.GetBool("interactive") {
		paths, err = runInteractiveFinder(cls, opts.maxDepth)
		if err != nil {
			return fmt.Errorf("interactive mode error: %w", err)
		}
		if paths == nil {
			return nil
		}
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	filter, err := newPatternFilter(opts.include, opts.exclude, opts.maxDepth)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	var progress io.Writer
	if interactive {
		progress = os.Stderr
	}

	resolver := &inputResolver{
		classifier: cls,
		filter:     filter,
		noIgnore:   opts.noIgnore,
		linkDepth:  opts.linkDepth,
		progress:   progress,
	}
	plan, err := resolver.resolve(ctx, paths)
	if err != nil {
		return err
	}

	var counter tokenize.Counter
	if opts.tokens {
		counter, err = tokenize.New(tokenize.Options{
			Kind:   opts.tokenizer,
			Model:  opts.tokenizerModel,
			File:   opts.tokenizerFile,
			Logger: logger,
		})
		if err != nil {
			logger.Warn("Token counting disabled", zap.Error(err))
			counter = nil
		} else {
			defer counter.Close()
		}
	}

	cfg := pipeline.Config{
		Source: source.Options{
			Classifier:  plan.classifier,
			MaxFileSize: opts.maxSize,
			Logger:      logger,
		},
		Logger: logger,
	}
	if counter != nil {
		cfg.Counter = counter
	}
	if interactive {
		cfg.LogFunc = func(line string) { fmt.Fprintf(os.Stderr, "> %s\n", line) }
	}
	if opts.ai {
		gem, err := newGemini(ctx)
		if err != nil {
			return err
		}
		cfg.Enricher = gem
	}

	res, err := pipeline.New(cfg).Run(ctx, plan.inputs...)
	if err != nil {
		return err
	}

	if err := deliver(ctx, cmd.OutOrStdout(), res, opts); err != nil {
		return err
	}
	writeSummary(cmd.ErrOrStderr(), res, plan.failed, counter != nil)
	return nil
}

// deliver routes the document. Stdout is used only when no other destination was chosen.
func deliver(ctx context.Context, stdout io.Writer, res *pipeline.Result, opts runOptions) error {
	doc := res.Outputs.Flattened
	toStdout := opts.outputFile == "" && !opts.clipboard && opts.pdfFile == "" && !opts.s3 && !opts.sync

	if opts.tree {
		fmt.Fprintln(stdout, flatten.Tree(res.Records, "."))
	}

	if opts.outputFile != "" {
		if err := export.WriteFile(opts.outputFile, doc, logger); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Output saved to %s\n", opts.outputFile)
	}

	if opts.clipboard {
		if err := export.Clipboard(doc); err != nil {
			logger.Warn("Clipboard unavailable, printing instead", zap.Error(err))
			toStdout = true
		} else {
			fmt.Fprintln(os.Stderr, "Output copied to clipboard.")
		}
	}

	if opts.pdfFile != "" {
		err := export.WritePDF(opts.pdfFile, res.Records, res.Stats, export.PDFOptions{
			Style:     viper.GetString("pdf_style"),
			Tree:      opts.tree,
			RootName:  ".",
			Languages: loadLanguages(),
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("error generating PDF: %w", err)
		}
		fmt.Fprintf(os.Stderr, "PDF saved to %s\n", opts.pdfFile)
	}

	if opts.s3 {
		if err := uploadOutputs(ctx, res); err != nil {
			return err
		}
	}

	if opts.sync {
		st, err := openStore(ctx)
		if err != nil {
			return fmt.Errorf("Cloud Sync Failed: %w", err)
		}
		defer st.Close()
		rec, err := st.Save(ctx, res.ProjectName, res.Stats, res.Outputs)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %s as #%d\n", rec.ProjectName, rec.ID)
	}

	if toStdout {
		fmt.Fprint(stdout, doc)
	}
	return nil
}

// uploadOutputs puts every non-empty artifact under <project>/ in the configured bucket.
func uploadOutputs(ctx context.Context, res *pipeline.Result) error {
	s3, err := export.NewS3(export.S3Config{
		Endpoint:  viper.GetString("s3.endpoint"),
		Region:    viper.GetString("s3.region"),
		AccessKey: viper.GetString("s3.access_key"),
		SecretKey: viper.GetString("s3.secret_key"),
		Bucket:    viper.GetString("s3.bucket"),
		UseSSL:    viper.GetBool("s3.use_ssl"),
	})
	if err != nil {
		return err
	}
	for _, a := range []export.Artifact{export.ArtifactFlattened, export.ArtifactSummary, export.ArtifactContext} {
		content, _ := export.Content(res.Outputs, a)
		if content == "" {
			continue
		}
		key, err := s3.Put(ctx, res.ProjectName, export.FileName(a, "md"), content)
		if err != nil {
			return err
		}
		logger.Info("Uploaded artifact", zap.String("key", key))
		if url, err := s3.PresignedURL(ctx, key); err == nil {
			fmt.Fprintf(os.Stderr, "Uploaded %s: %s\n", key, url)
		}
	}
	return nil
}

// writeSummary prints the totals the way the tree and file views end.
func writeSummary(w io.Writer, res *pipeline.Result, failed int, tokens bool) {
	st := res.Stats
	fmt.Fprintln(w, "\n--- Summary ---")
	fmt.Fprintf(w, "Project: %s\n", res.ProjectName)
	fmt.Fprintf(w, "Total files processed: %d\n", st.TotalFiles)
	fmt.Fprintf(w, "Total lines: %d\n", st.TotalLines)
	fmt.Fprintf(w, "Total size: %d bytes\n", st.TotalSize)
	if tokens {
		fmt.Fprintf(w, "Total tokens: %d\n", st.TotalTokens)
	}
	if types := st.SortedTypes(); len(types) > 0 {
		parts := make([]string, 0, len(types))
		for _, tc := range types {
			if tc.Type == stats.UnknownType {
				parts = append(parts, fmt.Sprintf("(none) %d", tc.Count))
				continue
			}
			parts = append(parts, fmt.Sprintf(".%s %d", tc.Type, tc.Count))
		}
		fmt.Fprintf(w, "File types: %s\n", strings.Join(parts, ", "))
	}
	if failed > 0 {
		fmt.Fprintf(w, "Paths failed to process: %d\n", failed)
	}
	if res.EnrichErr != nil {
		fmt.Fprintf(w, "AI processing failed: %v\n", res.EnrichErr)
	}
}
