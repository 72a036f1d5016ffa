package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Filtering
	includePatterns  string
	excludePatterns  string
	maxSizeBytes     int64
	maxDepth         int
	noIgnore         bool
	classifierConfig string

	// Output
	outputFile      string
	copyToClipboard bool
	pdfOutputFile   string
	showTree        bool
	uploadS3        bool
	syncStore       bool

	// Token Counting
	disableTokens  bool
	tokenizerType  string
	tokenizerModel string
	tokenizerFile  string

	// Web Specific
	traverseLinks bool
	linkDepth     int

	// AI
	enrichOutputs bool

	interactiveMode bool
	debugLogging    bool
	cfgFile         string
)

// version is the application version, set via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "monofile [PATHS...]",
	Short: "monofile flattens a codebase into a single AI-ready markdown document.",
	Long: `monofile reads local directories, files, zip archives, Git repositories and web
pages, drops build output and binaries, and writes every remaining file into one
deterministic markdown document. The document can be summarized with Gemini, saved
to a SQLite or Postgres store, exported as PDF or uploaded to S3.`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runIngest,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/monofile/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	rootCmd.PersistentFlags().String("db", "", "Database DSN: a SQLite path or a postgres:// URL")
	viper.BindPFlag("database_dsn", rootCmd.PersistentFlags().Lookup("db"))

	// Filtering
	rootCmd.Flags().StringVarP(&includePatterns, "include", "i", "", "Only include files matching these patterns (comma-separated, e.g. *.rs,*.go)")
	viper.BindPFlag("include", rootCmd.Flags().Lookup("include"))
	rootCmd.Flags().StringVarP(&excludePatterns, "exclude", "e", "", "Additional patterns to exclude (comma-separated)")
	viper.BindPFlag("exclude", rootCmd.Flags().Lookup("exclude"))
	rootCmd.Flags().Int64VarP(&maxSizeBytes, "max-size", "s", 0, "Skip text files larger than this many bytes (0 for no limit)")
	viper.BindPFlag("max_size", rootCmd.Flags().Lookup("max-size"))
	rootCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum directory depth to traverse (0 for no limit)")
	viper.BindPFlag("max_depth", rootCmd.Flags().Lookup("max-depth"))
	rootCmd.Flags().BoolVar(&noIgnore, "no-ignore", false, "Don't respect .gitignore files")
	viper.BindPFlag("no_ignore", rootCmd.Flags().Lookup("no-ignore"))
	rootCmd.Flags().StringVar(&classifierConfig, "classifier-config", "", "YAML file overriding the ignored/binary/text lists")
	viper.BindPFlag("classifier_config", rootCmd.Flags().Lookup("classifier-config"))

	// Output
	rootCmd.Flags().StringVarP(&outputFile, "file", "f", "", "Save the document to the specified file")
	viper.BindPFlag("file", rootCmd.Flags().Lookup("file"))
	rootCmd.Flags().BoolVarP(&copyToClipboard, "clipboard", "c", false, "Copy the document to the clipboard")
	viper.BindPFlag("clipboard", rootCmd.Flags().Lookup("clipboard"))
	rootCmd.Flags().StringVar(&pdfOutputFile, "pdf", "", "Save the files as a syntax-highlighted PDF")
	viper.BindPFlag("pdf", rootCmd.Flags().Lookup("pdf"))
	rootCmd.Flags().String("languages", "", "linguist languages.yml used to pick PDF highlighters")
	viper.BindPFlag("languages", rootCmd.Flags().Lookup("languages"))
	rootCmd.Flags().BoolVar(&showTree, "tree", false, "Print the directory tree before the document")
	viper.BindPFlag("tree", rootCmd.Flags().Lookup("tree"))
	rootCmd.Flags().BoolVar(&uploadS3, "s3", false, "Upload the outputs to the configured S3 bucket")
	viper.BindPFlag("s3_upload", rootCmd.Flags().Lookup("s3"))
	rootCmd.Flags().BoolVar(&syncStore, "sync", false, "Save the project to the database")
	viper.BindPFlag("sync", rootCmd.Flags().Lookup("sync"))

	// Token Counting
	rootCmd.Flags().BoolVar(&disableTokens, "no-tokens", false, "Disable token counting")
	viper.BindPFlag("no_tokens", rootCmd.Flags().Lookup("no-tokens"))
	rootCmd.Flags().StringVar(&tokenizerType, "tokenizer", "tiktoken", "Tokenizer to use: tiktoken or huggingface")
	viper.BindPFlag("tokenizer", rootCmd.Flags().Lookup("tokenizer"))
	rootCmd.Flags().StringVar(&tokenizerModel, "model", "", "Model name for tokenizer (e.g., gpt-4o, gpt2)")
	viper.BindPFlag("model", rootCmd.Flags().Lookup("model"))
	rootCmd.Flags().StringVar(&tokenizerFile, "tokenizer-file", "", "Path to local tokenizer file")
	viper.BindPFlag("tokenizer_file", rootCmd.Flags().Lookup("tokenizer-file"))

	// Web Specific
	rootCmd.Flags().BoolVar(&traverseLinks, "traverse-links", false, "Traverse links when processing URLs")
	viper.BindPFlag("traverse_links", rootCmd.Flags().Lookup("traverse-links"))
	rootCmd.Flags().IntVar(&linkDepth, "link-depth", 1, "Maximum depth to traverse links")
	viper.BindPFlag("link_depth", rootCmd.Flags().Lookup("link-depth"))

	// AI
	rootCmd.Flags().BoolVar(&enrichOutputs, "ai", false, "Generate a summary, AI context and concepts with Gemini")
	viper.BindPFlag("ai", rootCmd.Flags().Lookup("ai"))

	rootCmd.Flags().BoolVar(&interactiveMode, "interactive", false, "Opens interactive file picker")
	viper.BindPFlag("interactive", rootCmd.Flags().Lookup("interactive"))

	viper.SetDefault("max_size", 0)
	viper.SetDefault("max_depth", 0)
	viper.SetDefault("tokenizer", "tiktoken")
	viper.SetDefault("link_depth", 1)
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.use_ssl", true)

	rootCmd.AddCommand(versionCmd, listCmd, showCmd, recreateCmd, askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
