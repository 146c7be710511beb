package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gqlpipe/gqlpipe/internal/cache"
	"github.com/gqlpipe/gqlpipe/internal/chain"
	"github.com/gqlpipe/gqlpipe/internal/compiler"
	"github.com/gqlpipe/gqlpipe/internal/eventbus"
	"github.com/gqlpipe/gqlpipe/internal/events"
	"github.com/gqlpipe/gqlpipe/internal/exec"
	"github.com/gqlpipe/gqlpipe/internal/httptp"
	"github.com/gqlpipe/gqlpipe/internal/interceptors"
	"github.com/gqlpipe/gqlpipe/internal/otel"
	"github.com/gqlpipe/gqlpipe/internal/reqid"
	"github.com/gqlpipe/gqlpipe/internal/schema"
)

const rootUsage = `gqlpipe — typed GraphQL client execution core & tools

USAGE:
  gqlpipe <command> [flags]

COMMANDS:
  query            Execute an operation against an endpoint through the full pipeline
  collect          Print the grouped fields an operation resolves for a sample object
  help             Show help for any command
`

const queryUsage = `query FLAGS:
  -endpoint <url>            GraphQL HTTP endpoint (required)
  -schema <file>             SDL schema file (required)
  -query <file>              Operation document file (required)
  -operation <name>          Operation name (default: the document's single operation)
  -vars <json>               Operation variables as inline JSON
  -cache.size <n>            In-memory result cache entries (default: 128; 0 disables)
  -cache.policy <policy>     cache-first | network-only | no-cache (default: cache-first)
  -retries <n>               Transient-failure restarts (default: 0)
  -timeout <duration>        Overall request timeout, e.g. 10s (default: 30s)
  -pretty                    Pretty-print the JSON result
  -verbose                   Print pipeline events to stderr
  -otel.endpoint <addr>      OTLP collector endpoint
  -otel.service <name>       OpenTelemetry service name (default: gqlpipe)
`

const collectUsage = `collect FLAGS:
  -schema <file>             SDL schema file (required)
  -query <file>              Operation document file (required)
  -operation <name>          Operation name (default: the document's single operation)
  -vars <json>               Operation variables as inline JSON
  -object <file>             JSON object the selections are collected against (required)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("gqlpipe", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "query":
		return cmdQuery(cmdArgs)
	case "collect":
		return cmdCollect(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "query":
		fmt.Print(queryUsage)
	case "collect":
		fmt.Print(collectUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	endpoint := fs.String("endpoint", "", "")
	schemaPath := fs.String("schema", "", "")
	queryPath := fs.String("query", "", "")
	operation := fs.String("operation", "", "")
	varsJSON := fs.String("vars", "", "")
	cacheSize := fs.Int("cache.size", 128, "")
	cachePolicy := fs.String("cache.policy", "cache-first", "")
	retries := fs.Int("retries", 0, "")
	timeout := fs.Duration("timeout", 30*time.Second, "")
	pretty := fs.Bool("pretty", false, "")
	verbose := fs.Bool("verbose", false, "")
	otelEndpoint := fs.String("otel.endpoint", "", "")
	otelService := fs.String("otel.service", "gqlpipe", "")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, queryUsage)
		return err
	}
	if *endpoint == "" || *schemaPath == "" || *queryPath == "" {
		fmt.Fprint(os.Stderr, queryUsage)
		return fmt.Errorf("-endpoint, -schema and -query are required")
	}

	eventbus.Use(eventbus.New())
	if *verbose {
		subscribeVerbose()
	}
	shutdown, err := otel.Setup(*otelEndpoint, *otelService)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	reg, err := loadRegistry(*schemaPath)
	if err != nil {
		return err
	}
	op, err := loadOperation(reg, *queryPath, *operation, *varsJSON)
	if err != nil {
		return err
	}

	policy, err := parseCachePolicy(*cachePolicy)
	if err != nil {
		return err
	}
	var store cache.Store
	if *cacheSize > 0 {
		store, err = cache.NewLRUStore(*cacheSize)
		if err != nil {
			return err
		}
	}

	transport := httptp.New(httptp.WithRequestTimeout(*timeout))
	defer transport.Close()

	pipeline := []chain.Interceptor[map[string]any]{
		&interceptors.CacheRead[map[string]any]{Store: store},
		&interceptors.Network[map[string]any]{Transport: transport},
		&interceptors.Parse[map[string]any]{Schema: reg},
		&interceptors.CacheWrite[map[string]any]{Store: store},
	}
	var opts []chain.Option[map[string]any]
	if *retries > 0 {
		opts = append(opts, chain.WithErrorHandler[map[string]any](
			&interceptors.RetryHandler[map[string]any]{MaxAttempts: *retries}))
	}
	c := chain.New(pipeline, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, _ = reqid.NewContext(ctx)

	req := chain.NewRequest(ctx, op)
	req.Endpoint = *endpoint
	req.CachePolicy = policy

	var wg sync.WaitGroup
	wg.Add(1)
	var outErr error
	c.KickOff(req, func(resp *chain.Response[map[string]any], err error) {
		defer wg.Done()
		if err != nil {
			outErr = err
			return
		}
		outErr = printJSON(*resp.Result, *pretty)
		if resp.Normalized != nil && len(resp.Normalized.Errors) > 0 {
			fmt.Fprintf(os.Stderr, "partial result: %s\n", resp.Normalized.Errors.Error())
		}
	})
	wg.Wait()
	return outErr
}

func cmdCollect(args []string) error {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	schemaPath := fs.String("schema", "", "")
	queryPath := fs.String("query", "", "")
	operation := fs.String("operation", "", "")
	varsJSON := fs.String("vars", "", "")
	objectPath := fs.String("object", "", "")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, collectUsage)
		return err
	}
	if *schemaPath == "" || *queryPath == "" || *objectPath == "" {
		fmt.Fprint(os.Stderr, collectUsage)
		return fmt.Errorf("-schema, -query and -object are required")
	}

	reg, err := loadRegistry(*schemaPath)
	if err != nil {
		return err
	}
	op, err := loadOperation(reg, *queryPath, *operation, *varsJSON)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(*objectPath)
	if err != nil {
		return err
	}
	var object map[string]any
	if err := json.Unmarshal(raw, &object); err != nil {
		return fmt.Errorf("decoding -object: %w", err)
	}

	ectx := &exec.Context{Variables: op.Variables, Schema: reg}
	grouping := exec.NewFieldGrouping()
	if err := (exec.DefaultCollector{}).Collect(op.Selections, grouping, exec.FromMap(object), ectx); err != nil {
		return err
	}
	for _, group := range grouping.Ordered() {
		fmt.Printf("%s (%d merged)\n", group.ResponseKey, len(group.Fields))
	}
	for identity := range grouping.Fulfilled() {
		fmt.Printf("fulfilled: %s\n", identity)
	}
	return nil
}

func loadOperation(reg *schema.Registry, queryPath, operationName, varsJSON string) (*chain.Operation, error) {
	query, err := os.ReadFile(queryPath)
	if err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile(reg, string(query), operationName)
	if err != nil {
		return nil, err
	}
	var variables map[string]any
	if varsJSON != "" {
		if err := json.Unmarshal([]byte(varsJSON), &variables); err != nil {
			return nil, fmt.Errorf("decoding -vars: %w", err)
		}
	}
	return &chain.Operation{
		Name:       compiled.Name,
		Kind:       compiled.Kind,
		Document:   compiled.Document,
		Selections: compiled.Selections,
		Variables:  variables,
	}, nil
}

func loadRegistry(schemaPath string) (*schema.Registry, error) {
	sdl, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, err
	}
	return schema.FromSDL(schemaPath, string(sdl))
}

func parseCachePolicy(s string) (chain.CachePolicy, error) {
	switch s {
	case "cache-first":
		return chain.CacheFirst, nil
	case "network-only":
		return chain.NetworkOnly, nil
	case "no-cache":
		return chain.NoCache, nil
	default:
		return 0, fmt.Errorf("unknown cache policy %q", s)
	}
}

func printJSON(v any, pretty bool) error {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func subscribeVerbose() {
	eventbus.Subscribe(func(_ context.Context, e events.ChainProceed) {
		fmt.Fprintf(os.Stderr, "chain: dispatch %s[%d]\n", e.Operation, e.Index)
	})
	eventbus.Subscribe(func(_ context.Context, e events.ChainRetry) {
		fmt.Fprintf(os.Stderr, "chain: retry %s\n", e.Operation)
	})
	eventbus.Subscribe(func(_ context.Context, e events.HTTPRequestFinish) {
		fmt.Fprintf(os.Stderr, "http: %s %s status=%d in %s\n", e.Operation, e.Endpoint, e.Status, e.Duration)
	})
	eventbus.Subscribe(func(_ context.Context, e events.CacheHit) {
		fmt.Fprintf(os.Stderr, "cache: hit %s\n", e.Key)
	})
	eventbus.Subscribe(func(_ context.Context, e events.CacheMiss) {
		fmt.Fprintf(os.Stderr, "cache: miss %s\n", e.Key)
	})
	eventbus.Subscribe(func(_ context.Context, e events.CacheWrite) {
		fmt.Fprintf(os.Stderr, "cache: write %s\n", e.Key)
	})
}
