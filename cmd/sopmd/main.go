package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gubarz/sopmd/internal/client"
	"github.com/gubarz/sopmd/internal/config"
	"github.com/gubarz/sopmd/internal/logutils"
	"github.com/gubarz/sopmd/internal/output"
	"github.com/gubarz/sopmd/internal/preview"
	"github.com/gubarz/sopmd/internal/refs"
	"github.com/gubarz/sopmd/internal/sop"
	"github.com/gubarz/sopmd/internal/ui"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "sopmd [path]",
	Short: "Browse SOP documents with linked references",
	Long: `Operator console for standard operating procedures.

Browse SOPs from a backend (--api) or a local directory, preview them with
mentions of other SOPs highlighted, and open a referenced SOP in an overlay.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runBrowse,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a markdown file to HTML with references highlighted",
	Long: `Renders markdown from a file (or stdin when no file is given) and wraps
every mention of a known SOP in a reference marker.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

var refsCmd = &cobra.Command{
	Use:   "refs",
	Short: "List the reference tokens in matching order",
	Args:  cobra.NoArgs,
	RunE:  runRefs,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <path>",
	Short: "Print the raw content of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(renderCmd, refsCmd, fetchCmd)

	rootCmd.PersistentFlags().String("api", "", "Backend base URL (overrides the local path)")
	rootCmd.PersistentFlags().StringP("path", "p", "", "Directory or file of SOP documents")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Int("cache-size", 0, "Referenced documents cached per preview")
	rootCmd.Flags().StringP("query", "q", "", "Initial search query")

	renderCmd.Flags().StringP("output", "o", "", "Output mode: print, copy, file")
	renderCmd.Flags().Bool("copy", false, "Copy HTML (shorthand for -o copy)")
	renderCmd.Flags().String("out", "", "Write HTML to file (implies -o file)")

	viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api"))
	viper.BindPFlag("path", rootCmd.PersistentFlags().Lookup("path"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("cache_size", rootCmd.PersistentFlags().Lookup("cache-size"))
	viper.BindPFlag("output", renderCmd.Flags().Lookup("output"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
}

// newLogger builds the process logger from config
func newLogger() (zerolog.Logger, func(), error) {
	logger, closer, err := logutils.New(config.GetLogLevel(), config.GetLogFile())
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("init logger: %w", err)
	}
	return logger, closer, nil
}

// openSource picks the backend when an API URL is configured, otherwise the
// local document path
func openSource(logger zerolog.Logger) (sop.Source, error) {
	if url := config.GetAPIURL(); url != "" {
		logger.Debug().Str("api_url", url).Msg("using backend source")
		return client.New(url, config.GetTimeout()), nil
	}

	absPath, err := filepath.Abs(config.GetPath())
	if err != nil {
		return nil, fmt.Errorf("error resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path error: %w", err)
	}

	p := sop.NewParser(config.GetExclude())
	var lib *sop.Library
	if info.IsDir() {
		lib, err = p.ParseDirectory(absPath)
	} else {
		lib, err = p.ParseSingleFile(absPath)
	}
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	// Check for tokens claimed by more than one document
	if len(lib.Duplicates) > 0 {
		fmt.Fprintln(os.Stderr, "Warning: duplicate references found:")
		for _, dup := range lib.Duplicates {
			fmt.Fprintf(os.Stderr, "  %q claimed by:\n    - %s\n    - %s\n", dup.Token, dup.Path1, dup.Path2)
			logger.Warn().Str("token", dup.Token).Str("first", dup.Path1).Str("second", dup.Path2).Msg("duplicate reference token")
		}
		fmt.Fprintln(os.Stderr)
	}

	logger.Debug().Str("path", absPath).Int("documents", lib.Len()).Msg("using local source")
	return lib, nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		config.SetPath(args[0])
	}

	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	source, err := openSource(logger)
	if err != nil {
		return err
	}

	summaries, err := source.Summaries(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(summaries) == 0 {
		return fmt.Errorf("no documents found")
	}

	query, _ := cmd.Flags().GetString("query")
	return ui.RunTUI(ctx, summaries, source, ui.Options{
		CacheSize: config.GetCacheSize(),
		Editor:    config.GetEditor(),
		Query:     query,
		Logger:    logger,
	})
}

func runRender(cmd *cobra.Command, args []string) error {
	if c, _ := cmd.Flags().GetBool("copy"); c {
		config.SetOutput(string(output.ModeCopy))
	}
	out, _ := cmd.Flags().GetString("out")
	if out != "" {
		config.SetOutput(string(output.ModeFile))
	}
	mode, err := output.ParseMode(config.GetOutput())
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	body, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	source, err := openSource(logger)
	if err != nil {
		return err
	}
	summaries, err := source.Summaries(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	session := preview.NewSession(source, config.GetCacheSize(), logger)
	session.SetDocuments(summaries)
	session.Load(body)

	return output.NewWriter().WithStdout(cmd.OutOrStdout()).Write(session.HTML(), mode, out)
}

// readInput reads the named file, or r when no file is given
func readInput(args []string, r io.Reader) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

func runRefs(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	source, err := openSource(logger)
	if err != nil {
		return err
	}
	summaries, err := source.Summaries(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tPATH")
	for _, tok := range refs.Tokens(summaries) {
		fmt.Fprintf(w, "%s\t%s\n", tok.Text, tok.Path)
	}
	return w.Flush()
}

func runFetch(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	source, err := openSource(logger)
	if err != nil {
		return err
	}

	content, err := source.FetchRaw(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("fetch %s: %w", args[0], err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), content)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
