// Package main is the Shindan CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/shindan/internal/advisor"
	"github.com/hyperjump/shindan/internal/cli"
	"github.com/hyperjump/shindan/internal/config"
	"github.com/hyperjump/shindan/internal/knowledge"
	"github.com/hyperjump/shindan/internal/models"
	"github.com/hyperjump/shindan/internal/server"
	"github.com/hyperjump/shindan/internal/watcher"
	"github.com/hyperjump/shindan/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shindan/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development), and when neither exists the
// built-in defaults are used. Returns the config and the path that was actually loaded
// ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.Default()
			if err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "advise":
		runAdvise()
	case "chat":
		runChat()
	case "symptoms":
		runSymptoms()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "config":
		runConfig()
	case "version", "--version", "-v":
		fmt.Printf("shindan version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// reorderArgs moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse sees them. Go's flag package stops at the
// first non-flag argument, so "shindan chat I have a cough --output json" would
// otherwise leave --output unparsed.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 1 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args with spaces so a chat message works the same with or
// without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// parseIDArgs accepts ids as separate args or comma-separated lists ("1 2", "1,2").
func parseIDArgs(args []string) []int64 {
	var raw []interface{}
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part = strings.TrimSpace(part); part != "" {
				raw = append(raw, part)
			}
		}
	}
	return models.ParseSymptomIDs(raw)
}

// commonFlags registers the flags shared by the query commands.
type commonFlags struct {
	configPath *string
	serverURL  *string
	output     *string
}

func newCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path (direct mode)"),
		serverURL:  fs.String("server", "", "server URL, e.g. http://localhost:8080 (empty = open the database directly)"),
		output:     fs.String("output", "text", "output format: text or json"),
	}
}

func (c commonFlags) format() cli.OutputFormat {
	format, err := cli.ParseOutputFormat(*c.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

// direct opens components for commands that run without a server.
func (c commonFlags) direct() (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(*c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components, logger
}

func fail(action string, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "%s failed: %s\n", action, apiErr.Message)
	} else if errors.Is(err, advisor.ErrInvalidInput) || errors.Is(err, advisor.ErrLookupFailure) {
		fmt.Fprintf(os.Stderr, "%s failed: %s\n", action, advisor.UserMessage(err))
	} else {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", action, err)
	}
	os.Exit(1)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Knowledge.Watch && cfg.Knowledge.Path != "" {
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc, err := watcher.NewWatcher(
			[]string{cfg.Knowledge.Path},
			func(path string) {
				if err := components.Reload(watchCtx, path); err != nil {
					logger.Warn("knowledge base reload failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err != nil {
			logger.Fatal("Failed to create watcher", zap.Error(err))
		}
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
		logger.Info("watching knowledge base", zap.Strings("files", watchSvc.Files()))
	}

	server.Version = version
	srv := server.NewServer(components.Advisor, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printAdviseUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: shindan advise [flags] <symptom-id>...\n\n")
	fmt.Fprintf(fs.Output(), "Ids may be separate arguments or comma-separated. Use \"shindan symptoms\" to list ids.\n\n")
	fs.PrintDefaults()
}

func runAdvise() {
	fs := flag.NewFlagSet("advise", flag.ExitOnError)
	flags := newCommonFlags(fs)
	sessionID := fs.String("session", "", "session id to record (default: generated)")
	fs.Usage = func() { printAdviseUsage(fs) }
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	format := flags.format()

	ids := parseIDArgs(fs.Args())
	if len(ids) == 0 {
		printAdviseUsage(fs)
		os.Exit(1)
	}

	var (
		resp *models.AdviceResponse
		err  error
	)
	if *flags.serverURL != "" {
		resp = &models.AdviceResponse{}
		err = postJSON(*flags.serverURL+"/api/v1/advice", adviceRequest(ids, *sessionID), resp)
	} else {
		components, logger := flags.direct()
		defer logger.Sync()
		defer components.Close()
		resp, err = components.Advisor.Advise(context.Background(), advisor.AdviceInput{
			SymptomIDs: ids,
			SessionID:  *sessionID,
			UserAgent:  "shindan-cli/" + version,
		})
	}
	if err != nil {
		fail("Advice", err)
	}
	if err := cli.WriteAdvice(os.Stdout, resp, format); err != nil {
		fail("Output", err)
	}
}

func adviceRequest(ids []int64, sessionID string) *models.AdviceRequest {
	raw := make([]interface{}, len(ids))
	for i, id := range ids {
		raw[i] = id
	}
	return &models.AdviceRequest{Symptoms: raw, SessionID: sessionID}
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	flags := newCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: shindan chat [flags] <message>\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), "\nExample:\n  shindan chat I have a headache and a fever\n")
	}
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	format := flags.format()

	message := joinArgs(fs.Args())
	if message == "" {
		fs.Usage()
		os.Exit(1)
	}

	var (
		reply *models.ChatReply
		err   error
	)
	if *flags.serverURL != "" {
		reply = &models.ChatReply{}
		err = postJSON(*flags.serverURL+"/api/v1/chat", &models.ChatRequest{Message: message}, reply)
	} else {
		components, logger := flags.direct()
		defer logger.Sync()
		defer components.Close()
		reply, err = components.Advisor.Chat(context.Background(), advisor.ChatInput{
			Message:   message,
			UserAgent: "shindan-cli/" + version,
		})
	}
	if err != nil {
		fail("Chat", err)
	}
	if err := cli.WriteChat(os.Stdout, reply, format); err != nil {
		fail("Output", err)
	}
}

func runSymptoms() {
	fs := flag.NewFlagSet("symptoms", flag.ExitOnError)
	flags := newCommonFlags(fs)
	search := fs.String("search", "", "only symptoms whose name contains this text")
	categories := fs.Bool("categories", false, "list categories instead of symptoms")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	format := flags.format()

	if *flags.serverURL != "" {
		if *categories {
			var out struct {
				Categories []string `json:"categories"`
			}
			if err := getJSON(*flags.serverURL+"/api/v1/symptoms/categories", &out); err != nil {
				fail("Categories", err)
			}
			_ = cli.WriteCategories(os.Stdout, out.Categories, format)
			return
		}
		endpoint := *flags.serverURL + "/api/v1/symptoms"
		if *search != "" {
			endpoint += "?search=" + url.QueryEscape(*search)
		}
		var out struct {
			Symptoms []models.Symptom `json:"symptoms"`
		}
		if err := getJSON(endpoint, &out); err != nil {
			fail("Symptoms", err)
		}
		_ = cli.WriteSymptoms(os.Stdout, out.Symptoms, format)
		return
	}

	components, logger := flags.direct()
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()
	if *categories {
		cats, err := components.Advisor.Categories(ctx)
		if err != nil {
			fail("Categories", err)
		}
		_ = cli.WriteCategories(os.Stdout, cats, format)
		return
	}
	var (
		symptoms []models.Symptom
		err      error
	)
	if *search != "" {
		symptoms, err = components.Advisor.SearchSymptoms(ctx, *search)
	} else {
		symptoms, err = components.Advisor.Symptoms(ctx)
	}
	if err != nil {
		fail("Symptoms", err)
	}
	_ = cli.WriteSymptoms(os.Stdout, symptoms, format)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	force := fs.Bool("force", false, "import even when the content is unchanged")
	export := fs.String("export", "", "write the knowledge base to this .yaml or .xlsx file instead of importing")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: shindan import [flags] [file.yaml|file.xlsx]\n\n")
		fmt.Fprintf(fs.Output(), "Without a file, the configured knowledge.path or the built-in knowledge base is used.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		cfg.Knowledge.Path = fs.Arg(0)
	}
	kb, err := loadKnowledge(cfg)
	if err != nil {
		fail("Import", err)
	}

	if *export != "" {
		if err := exportKnowledge(kb, *export); err != nil {
			fail("Export", err)
		}
		fmt.Printf("Knowledge base written to %s\n", *export)
		return
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	f := false
	cfg.Knowledge.ImportOnStart = &f
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fail("Import", err)
	}
	defer components.Close()

	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()
	changed, err := components.Storage.Import(ctx, kb, *force)
	if err != nil {
		fail("Import", err)
	}
	if !changed {
		fmt.Println("Knowledge base unchanged; nothing imported (use --force to re-import)")
		return
	}
	fmt.Printf("Imported %d symptoms, %d advice entries, %d mappings\n",
		len(kb.Symptoms), len(kb.Advice), len(kb.Mappings))
}

func exportKnowledge(kb *knowledge.Base, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := kb.WriteXLSX(f); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	case ".yaml", ".yml":
		return kb.Save(path)
	default:
		return fmt.Errorf("unsupported export format %q (use .yaml or .xlsx)", filepath.Ext(path))
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	flags := newCommonFlags(fs)
	_ = fs.Parse(os.Args[2:])
	format := flags.format()

	var status *advisor.Status
	if *flags.serverURL != "" {
		status = &advisor.Status{}
		if err := getJSON(*flags.serverURL+"/api/v1/status", status); err != nil {
			fail("Status", err)
		}
	} else {
		components, logger := flags.direct()
		defer logger.Sync()
		defer components.Close()
		var err error
		status, err = components.Advisor.Status(context.Background())
		if err != nil {
			fail("Status", err)
		}
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fail("Output", err)
	}
}

func runConfig() {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	write := fs.String("write", "", "write the effective config to this file instead of printing it")
	_ = fs.Parse(os.Args[2:])

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *write != "" {
		if err := config.Save(*write, cfg); err != nil {
			fail("Write config", err)
		}
		fmt.Printf("Config written to %s\n", *write)
		return
	}
	if resolved == "" {
		fmt.Println("# built-in defaults")
	} else {
		fmt.Printf("# %s\n", resolved)
	}
	if err := config.Write(os.Stdout, cfg); err != nil {
		fail("Output", err)
	}
}

// apiError is a {success:false, message} reply from the server.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func postJSON(endpoint string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := httpClient.Post(endpoint, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func getJSON(endpoint string, out interface{}) error {
	resp, err := httpClient.Get(endpoint)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		var failure struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(b, &failure) == nil && failure.Message != "" {
			return &apiError{Status: resp.StatusCode, Message: failure.Message}
		}
		return &apiError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`shindan - Rule-based symptom advice service

Usage:
  shindan server [flags]              Start the HTTP server
  shindan advise [flags] <ids...>     Rank advice for symptom ids
  shindan chat [flags] <message>      Describe symptoms in plain text
  shindan symptoms [flags]            List or search the symptom catalog
  shindan import [flags] [file]       Import a knowledge base (.yaml or .xlsx)
  shindan status [flags]              Show knowledge base and storage status
  shindan config [flags]              Print the effective config (file, .env and defaults)
  shindan version                     Show version
  shindan help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/shindan/config.yaml)
  --debug            Enable debug logging

Query Flags (advise, chat, symptoms, status):
  --config string    Config file path (direct mode)
  --server string    Server URL, e.g. http://localhost:8080. Empty (default) opens the database directly.
  --output string    Output format: text or json (default: text)

Symptoms Flags:
  --search string    Only symptoms whose name contains this text
  --categories       List categories instead of symptoms

Import Flags:
  --config string    Config file path
  --force            Import even when the content is unchanged
  --export string    Write the knowledge base to a .yaml or .xlsx file instead of importing

Config Flags:
  --config string    Config file path
  --write string     Write the effective config to this file instead of printing it

Environment:
  A .env file in the working directory is loaded first. SHINDAN_HOST, SHINDAN_PORT,
  SHINDAN_DEBUG, DATABASE_URL (sqlite:<path> or a postgres URL), REDIS_URL and
  SHINDAN_KNOWLEDGE_PATH override the config file.

Examples:
  shindan server
  shindan symptoms --search pain
  shindan advise 1 2
  shindan advise --output json 15,16
  shindan chat I have a headache and a fever
  shindan chat --server http://localhost:8080 "my chest hurts"
  shindan import knowledge.xlsx
  shindan import --export template.xlsx
  shindan status --output json`)
}
