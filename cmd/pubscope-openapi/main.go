// Package main generates the OpenAPI specification for pubscope's HTTP
// surface. It wires internal/httpapi's documentation-only registrations
// against a chi router that never serves a real request, so the spec can be
// produced without a database, worker pool, or fetch/LLM credentials.
//
// Usage:
//
//	go run ./cmd/pubscope-openapi > openapi.json
//	go run ./cmd/pubscope-openapi -yaml -output openapi.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/pubscope/internal/httpapi"
	"github.com/jmylchreest/pubscope/internal/version"
)

func main() {
	outputFile := flag.String("output", "", "Output file path (default: stdout)")
	outputYAML := flag.Bool("yaml", false, "Output as YAML instead of JSON")
	baseURL := flag.String("base-url", "https://pubscope.example.com", "Base URL for the API server")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().Short())
		return
	}

	router := chi.NewRouter()

	cfg := huma.DefaultConfig("pubscope", version.Get().Version)
	cfg.Info.Description = "Publisher and article resolution pipeline: WAF detection, ToS discovery, robots.txt and AI-bot policy, sitemap/RSS/RSL discovery, and paywall classification."
	cfg.Servers = []*huma.Server{{URL: *baseURL, Description: "pubscope server"}}
	api := humachi.New(router, cfg)

	docs := httpapi.New(nil, nil, nil, nil, 0)
	docs.RegisterDocs(api)

	spec := api.OpenAPI()

	var data []byte
	var err error
	if *outputYAML {
		data, err = yaml.Marshal(spec)
	} else {
		data, err = json.MarshalIndent(spec, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshaling OpenAPI spec: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing to file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "OpenAPI spec written to %s\n", *outputFile)
	} else {
		fmt.Print(string(data))
	}
}
