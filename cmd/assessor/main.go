package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/assessor/internal/encoder"
	"github.com/pavelanni/assessor/internal/handler"
	appI18n "github.com/pavelanni/assessor/internal/i18n"
	"github.com/pavelanni/assessor/internal/llm"
	"github.com/pavelanni/assessor/internal/model"
	"github.com/pavelanni/assessor/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "assessor",
		Short: "Competency-based review of social studies assessments",
	}

	serve := serveCmd()
	root.AddCommand(serve, analyzeCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `assessor --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("backend", llm.BackendGemini, "Model backend (gemini, openai)")
	f.String("model", "", "Model name (default depends on backend)")
	f.String("llm-url", "", "Override the backend endpoint (OpenAI-compatible base URL or Gemini endpoint)")
	f.String("api-key", "", "API key (or set ASSESSOR_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY, API_KEY)")
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "", "SQLite submission log path (empty disables the log)")
	f.StringP("lang", "l", "zh-TW", "UI language (zh-TW, en)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /assess)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.Int64("max-upload-mb", 10, "Maximum attachment size in MB")
	f.StringSlice("cors-origins", []string{"*"}, "Origins allowed to call the JSON API")
	addLLMFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one assessment and print the result as JSON",
		RunE:  runAnalyze,
	}
	f := cmd.Flags()
	f.StringP("text", "t", "", "Question text or note")
	f.StringP("file", "f", "", "Path to a PDF, JPEG or PNG file")
	f.String("mime-type", "", "Media type of --file (sniffed when empty)")
	f.Int64("max-upload-mb", 10, "Maximum attachment size in MB")
	addLLMFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the submission log as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "", "SQLite submission log path (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)

	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("ASSESSOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api-key", "ASSESSOR_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "API_KEY")

	v.SetConfigName("assessor")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/assessor")
	v.AddConfigPath("/etc/assessor")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func llmConfig(v *viper.Viper) llm.Config {
	return llm.Config{
		APIKey:  v.GetString("api-key"),
		Backend: v.GetString("backend"),
		Model:   v.GetString("model"),
		BaseURL: v.GetString("llm-url"),
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fails before any request when no credential is configured.
	client, err := llm.New(ctx, llmConfig(v))
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	defer client.Close()

	var recorder handler.Recorder
	if dbPath := v.GetString("db"); dbPath != "" {
		db, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		dep := model.Deployment{
			Backend:   client.Backend(),
			Model:     client.Model(),
			Lang:      v.GetString("lang"),
			StartedAt: time.Now(),
		}
		if err := db.SetDeployment(dep); err != nil {
			return fmt.Errorf("record deployment: %w", err)
		}
		recorder = db
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cfg := model.ServerConfig{
		BasePath:       handler.NormalizeBasePath(v.GetString("base-path")),
		SecureCookies:  v.GetBool("secure-cookies"),
		MaxUploadBytes: v.GetInt64("max-upload-mb") << 20,
		Lang:           lang,
		AllowedOrigins: v.GetStringSlice("cors-origins"),
	}
	h, err := handler.New(client, recorder, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Mount(r)

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	slog.Info("starting server",
		"addr", addr,
		"backend", client.Backend(),
		"model", client.Model(),
		"lang", lang,
		"locales", appI18n.Languages(),
		"base_path", cfg.BasePath,
		"max_upload_mb", v.GetInt64("max-upload-mb"),
		"submission_log", recorder != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	text := v.GetString("text")
	path := v.GetString("file")
	if strings.TrimSpace(text) == "" && path == "" {
		return errors.New("provide --text, --file or both")
	}

	client, err := llm.New(ctx, llmConfig(v))
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	defer client.Close()

	var attachment *model.EncodedFile
	if path != "" {
		f, err := readAttachment(ctx, path, v.GetString("mime-type"), v.GetInt64("max-upload-mb")<<20)
		if err != nil {
			return err
		}
		attachment = &f
	}

	start := time.Now()
	res, err := client.Analyze(ctx, text, attachment)
	if err != nil {
		slog.Error("analysis failed", "kind", llm.Kind(err), "error", err)
		return err
	}
	slog.Info("analysis finished", "overall_score", res.OverallScore, "duration", time.Since(start))

	return writeJSONOutput(cmd.OutOrStdout(), res)
}

// readAttachment applies the same file boundary as the web form.
func readAttachment(ctx context.Context, path, declared string, maxBytes int64) (model.EncodedFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return model.EncodedFile{}, &encoder.EncodingError{Name: path, Err: err}
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return model.EncodedFile{}, &encoder.EncodingError{Name: path, Err: err}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return model.EncodedFile{}, fmt.Errorf("%s: %d bytes exceeds the %d byte limit", path, info.Size(), maxBytes)
	}

	encoded, err := encoder.Encode(ctx, fh, declared)
	if err != nil {
		return model.EncodedFile{}, err
	}
	data, err := encoder.Decode(encoded)
	if err != nil {
		return model.EncodedFile{}, err
	}
	mt := encoder.DetectMediaType(declared, data)
	if !encoder.IsSupported(mt) {
		return model.EncodedFile{}, fmt.Errorf("%s: unsupported media type %q (use PDF, JPEG or PNG)", path, mt)
	}
	encoded.MIMEType = mt

	if encoder.IsPDF(mt) {
		if n, err := encoder.PageCount(data); err == nil {
			slog.Info("attachment", "path", path, "media_type", mt, "size", len(data), "pages", n)
		}
	}
	return encoded, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportSubmissions()
	if err != nil {
		return fmt.Errorf("export submissions: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := writeJSONOutput(w, export); err != nil {
		return err
	}
	slog.Info("exported submissions", "count", export.Count, "output", outPath)
	return nil
}

func writeJSONOutput(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
