package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/jsoncall/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/jsoncall/packages/core/config"
	"github.com/abdul-hamid-achik/jsoncall/packages/core/env"
	"github.com/abdul-hamid-achik/jsoncall/packages/core/logging"
	"github.com/abdul-hamid-achik/jsoncall/packages/http"
	"github.com/abdul-hamid-achik/jsoncall/packages/metrics"
	"github.com/abdul-hamid-achik/jsoncall/packages/output"
	"github.com/abdul-hamid-achik/jsoncall/packages/restcall"
	"github.com/abdul-hamid-achik/jsoncall/packages/schema"
)

type callFlags struct {
	baseURL     string
	params      string
	data        string
	dataFile    string
	headers     []string
	token       string
	oauth2      string
	noToken     bool
	noNonce     bool
	contentType string
	accept      string
	timeout     int
	insecure    bool
	proxy       string
	rate        float64
	schemaFile  string
	query       string
	output      string
	metrics     bool
	noColor     bool
	verbose     int
	configFile  string
	envFile     string
}

const defaultEnvFile = ".env"

var callCmd = newCallCmd()

func newCallCmd() *cobra.Command {
	f := &callFlags{}

	cmd := &cobra.Command{
		Use:   "call <verb> <path>",
		Short: "Send one JSON call and print the result",
		Long: `Send one authenticated JSON request and print the parsed response.

The bearer token comes from --token, --oauth2 or the config file. Unless
--no-nonce is given a random nonce is appended to the query string so that
caches along the way never answer the call.

Exit codes:
  0  success or no content
  1  non-2xx response
  2  response body is not JSON
  3  configuration error
  4  network error
  5  no access token
  6  response does not match --schema
  64 usage error`,
		Example: `  jsoncall call GET /v1/users --base-url https://api.example.com --token $TOKEN
  jsoncall call POST users -d '{"name":"ada"}' -H 'X-Tenant: acme'
  jsoncall call GET /v1/users -q 'limit=10' --query 'items.#.id'
  jsoncall call PUT /v1/users/7 --data-file user.json --schema user.schema.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, f, args[0], args[1])
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.baseURL, "base-url", getEnvString("JSONCALL_BASE_URL", ""), "Base URL of the API (env: JSONCALL_BASE_URL)")
	fl.StringVarP(&f.params, "params", "q", "", "Raw query string, without the leading '?'")
	fl.StringVarP(&f.data, "data", "d", "", "JSON request body")
	fl.StringVar(&f.dataFile, "data-file", "", "Read the request body from a file ('-' for stdin)")
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "Extra header 'Name: Value' (repeatable, first wins)")
	fl.StringVar(&f.token, "token", getEnvString("JSONCALL_TOKEN", ""), "Bearer token (env: JSONCALL_TOKEN)")
	fl.StringVar(&f.oauth2, "oauth2", getEnvString("JSONCALL_OAUTH2", ""), "OAuth2 grant: 'client_credentials tokenUrl clientId clientSecret [scopes]' (env: JSONCALL_OAUTH2)")
	fl.BoolVar(&f.noToken, "no-token", getEnvBool("JSONCALL_NO_TOKEN", false), "Send the call without a bearer token (env: JSONCALL_NO_TOKEN)")
	fl.BoolVar(&f.noNonce, "no-nonce", getEnvBool("JSONCALL_NO_NONCE", false), "Do not append the cache-defeating nonce (env: JSONCALL_NO_NONCE)")
	fl.StringVar(&f.contentType, "content-type", "", "Content-Type header value")
	fl.StringVar(&f.accept, "accept", "", "Accept header value")
	fl.IntVar(&f.timeout, "timeout", 0, "Request timeout in milliseconds")
	fl.BoolVarP(&f.insecure, "insecure", "k", false, "Skip TLS certificate validation")
	fl.StringVar(&f.proxy, "proxy", getEnvString("JSONCALL_PROXY", ""), "Proxy URL (env: JSONCALL_PROXY)")
	fl.Float64Var(&f.rate, "rate", getEnvFloat("JSONCALL_RATE", 0), "Maximum requests per second (env: JSONCALL_RATE)")
	fl.StringVar(&f.schemaFile, "schema", "", "Validate a successful response against a JSON Schema file")
	fl.StringVar(&f.query, "query", "", "Print only the value at this gjson path")
	fl.StringVarP(&f.output, "output", "o", getEnvString("JSONCALL_OUTPUT", "console"), "Output format: console, json (env: JSONCALL_OUTPUT)")
	fl.BoolVar(&f.metrics, "metrics", getEnvBool("JSONCALL_METRICS", false), "Print call metrics to stderr (env: JSONCALL_METRICS)")
	fl.BoolVar(&f.noColor, "no-color", getEnvBool("JSONCALL_NO_COLOR", false), "Disable colored output (env: JSONCALL_NO_COLOR)")
	fl.CountVarP(&f.verbose, "verbose", "v", "Verbose output (-v status line, -vv debug logs)")
	fl.StringVar(&f.configFile, "config", getEnvString("JSONCALL_CONFIG", ""), "Path to config file (env: JSONCALL_CONFIG)")
	fl.StringVar(&f.envFile, "env-file", getEnvString("JSONCALL_ENV_FILE", ""), "Variables for {{name}} references, defaults to ./.env when present (env: JSONCALL_ENV_FILE)")

	return cmd
}

func runCall(cmd *cobra.Command, f *callFlags, verb, path string) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	cfg, err := config.LoadConfig(f.configFile)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	overrides, err := f.toConfig()
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	cfg = cfg.Merge(overrides)

	logLevel := cfg.LogLevel
	if f.verbose > 1 {
		logLevel = "debug"
	}
	logger, err := logging.NewLogger(stderr, logLevel, cfg.LogFormat)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	defer func() { _ = logger.Sync() }()

	resolver, err := newResolver(f.envFile, logger)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	cfg = cfg.Expand(resolver)
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitConfigError, err)
	}
	if cfg.BaseURL == "" {
		return withExitCode(ExitUsageError, errors.New("base URL is required: use --base-url, JSONCALL_BASE_URL or baseURL in the config file"))
	}

	tokens, err := tokenProvider(cfg, resolver.Resolve(f.oauth2), logger)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	var recorder *metrics.Recorder
	callerOpts := append(cfg.CallerOptions(), restcall.WithLogger(logger))
	if f.metrics {
		recorder = metrics.NewRecorder()
		callerOpts = append(callerOpts, restcall.WithObserver(recorder))
	}

	caller, err := restcall.New(cfg.BaseURL, http.NewClient(cfg.ClientOptions()...), tokens, callerOpts...)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	var formatter output.Formatter
	switch f.output {
	case "json":
		formatter = output.NewJSONFormatter(output.WithJSONWriter(stdout))
	case "console", "":
		formatter = output.NewConsoleFormatter(
			output.WithWriter(stdout),
			output.WithVerbose(f.verbose > 0),
			output.WithNoColor(cfg.GetNoColor()),
		)
	default:
		return withExitCode(ExitUsageError, fmt.Errorf("unknown output format %q: expected console or json", f.output))
	}

	body, err := f.requestBody(cmd.InOrStdin())
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	result, callErr := caller.MakeJSONCall(ctx, verb, resolver.Resolve(path), resolver.Resolve(f.params), body)
	report := newCallReport(caller, strings.ToUpper(strings.TrimSpace(verb)), result, time.Since(start))

	exitCode := exitCodeFor(restcall.CodeOf(callErr))
	var schemaErr error
	if result.IsSuccess() {
		if f.schemaFile != "" {
			schemaErr = schema.ValidateFile(f.schemaFile, []byte(result.JSON.Raw))
		}
		if f.query != "" {
			report.Body = queryDocument(result, f.query)
		}
	}

	formatter.FormatCall(report)
	if schemaErr != nil {
		formatter.FormatError(schemaErr)
		exitCode = ExitSchemaError
	}

	if recorder != nil {
		if err := recorder.WriteText(stderr); err != nil {
			logger.Warn("write metrics", zap.Error(err))
		}
	}

	if exitCode != ExitSuccess {
		return withExitCode(exitCode, nil)
	}
	return nil
}

// toConfig turns explicitly set flags into a config overlay
func (f *callFlags) toConfig() (*config.Config, error) {
	cfg := &config.Config{
		BaseURL:     f.baseURL,
		ContentType: f.contentType,
		Accept:      f.accept,
		Token:       f.token,
		Timeout:     f.timeout,
		Proxy:       f.proxy,
		RateLimit:   f.rate,
	}

	if f.noToken {
		cfg.RequireToken = config.BoolPtr(false)
	}
	if f.noNonce {
		cfg.DefeatCaching = config.BoolPtr(false)
	}
	if f.insecure {
		cfg.ValidateSSL = config.BoolPtr(false)
	}
	if f.noColor {
		cfg.NoColor = config.BoolPtr(true)
	}

	for _, raw := range f.headers {
		h, err := parseHeaderFlag(raw)
		if err != nil {
			return nil, err
		}
		cfg.Headers = append(cfg.Headers, h)
	}

	return cfg, nil
}

// requestBody returns the value handed to MakeJSONCall as the body, or nil
func (f *callFlags) requestBody(stdin io.Reader) (any, error) {
	if f.data != "" && f.dataFile != "" {
		return nil, errors.New("--data and --data-file are mutually exclusive")
	}
	if f.data != "" {
		if !gjson.Valid(f.data) {
			return nil, errors.New("--data is not valid JSON")
		}
		return json.RawMessage(f.data), nil
	}
	switch f.dataFile {
	case "":
		return nil, nil
	case "-":
		// the caller closes bodies that are io.Closers; stdin stays open
		return io.NopCloser(stdin), nil
	}
	file, err := os.Open(f.dataFile)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	// closed by the caller once the request is built
	return file, nil
}

// parseHeaderFlag parses "Name: Value" as given to -H
func parseHeaderFlag(raw string) (config.HeaderConfig, error) {
	name, value, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return config.HeaderConfig{}, fmt.Errorf("invalid header %q: expected 'Name: Value'", raw)
	}
	return config.HeaderConfig{Name: name, Value: strings.TrimSpace(value)}, nil
}

// newResolver loads variables from envFile, or from ./.env when envFile is
// empty and that file exists
func newResolver(envFile string, logger *zap.Logger) (*env.Resolver, error) {
	resolver := env.NewResolver(env.WithLogger(logger))

	path := envFile
	if path == "" {
		if _, err := os.Stat(defaultEnvFile); err != nil {
			return resolver, nil
		}
		path = defaultEnvFile
	}

	vars, err := env.LoadDotEnv(path)
	if err != nil {
		return nil, err
	}
	resolver.SetVariables(vars)
	logger.Debug("loaded env file", zap.String("path", path), zap.Int("variables", len(vars)))
	return resolver, nil
}

func tokenProvider(cfg *config.Config, annotation string, logger *zap.Logger) (restcall.TokenProvider, error) {
	if annotation == "" {
		return cfg.TokenProvider(logger), nil
	}
	oauthCfg, err := oauth2.ParseGrant(strings.Fields(annotation))
	if err != nil {
		return nil, fmt.Errorf("--oauth2: %w", err)
	}
	return oauth2.NewProvider(oauthCfg, oauth2.WithLogger(logger)), nil
}

func newCallReport(caller *restcall.Caller, verb string, result restcall.Result, duration time.Duration) *output.CallReport {
	report := &output.CallReport{
		Verb:       verb,
		Host:       caller.Host(),
		Path:       caller.RequestPath(),
		Outcome:    result.Outcome,
		Code:       caller.ErrorCode(),
		StatusCode: result.StatusCode,
		Status:     result.Status,
		Message:    caller.ErrorMessage(),
		Duration:   duration,
	}

	switch {
	case result.IsSuccess():
		report.Body = []byte(result.JSON.Raw)
	case caller.ResponseText() != "":
		report.Body = []byte(caller.ResponseText())
	}
	return report
}

// queryDocument selects path from the result. A missing path yields null.
func queryDocument(result restcall.Result, path string) []byte {
	value := result.Get(path)
	if !value.Exists() {
		return []byte("null")
	}
	return []byte(value.Raw)
}
