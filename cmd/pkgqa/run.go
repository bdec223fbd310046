package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkgqa/pkgqa/config"
	"github.com/pkgqa/pkgqa/engine"
	"github.com/pkgqa/pkgqa/filter"
	"github.com/pkgqa/pkgqa/pkgerr"
	"github.com/pkgqa/pkgqa/registry"
	"github.com/pkgqa/pkgqa/reporter"
	"github.com/pkgqa/pkgqa/repository"
	"github.com/pkgqa/pkgqa/result"
)

func runScan(cmd *cobra.Command, args []string) error {
	if listChecks, _ := cmd.Flags().GetBool("list-checks"); listChecks {
		for _, name := range registry.Names() {
			fmt.Println(name)
		}
		return nil
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	cfg.Repository = args[0]
	atoms := args[1:]
	cfg.Whitelist = append(cfg.Whitelist, atoms...)

	explicitChecks, _ := cmd.Flags().GetStringSlice("checks")
	disableChecks, _ := cmd.Flags().GetStringSlice("disable")
	checkWhitelist, checkBlacklist, err := filter.CompileChecks(
		append(append([]string{}, cfg.Checks...), explicitChecks...),
		append(append([]string{}, cfg.Disabled...), disableChecks...),
	)
	if err != nil {
		return err
	}
	sinks, err := registry.Build(cfg, checkWhitelist, checkBlacklist)
	if err != nil {
		return err
	}

	engineSinks := make([]engine.Sink, len(sinks))
	copy(engineSinks, sinks)

	composite, err := filter.Compile(cfg.Whitelist, cfg.Blacklist, cfg.Scope)
	if err != nil {
		return err
	}

	src := repository.NewSource(cfg.Repository, 100)
	planner := &engine.Planner{
		Sources:    []engine.Source{src},
		Transforms: repository.StandardTransforms(cfg.Repository, composite),
		Debug:      cfg.Debug,
	}

	pipelines, err := planner.Plan(engineSinks)
	if err != nil {
		return err
	}

	rep, err := buildReporter(cfg)
	if err != nil {
		return err
	}

	if err := rep.Start(); err != nil {
		return &pkgerr.ReporterInitError{Destination: cfg.Reporter, Err: err}
	}

	criterion := cfg.Repository
	if len(atoms) > 0 {
		criterion = cfg.Repository + " " + strings.Join(atoms, " ")
	}

	var runErr error
	for _, p := range pipelines {
		if err := engine.RunPipeline(p, rep, criterion); err != nil && runErr == nil {
			runErr = err
		}
	}

	if err := rep.Finish(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	// --checks/--disable are merged with cfg.Checks/cfg.Disabled
	// directly in runScan (both are check-selection patterns, combined
	// rather than overridden outright).
	if v, _ := cmd.Flags().GetString("reporter"); v != "" {
		cfg.Reporter = v
	}
	if xml, _ := cmd.Flags().GetBool("xml"); xml && cfg.Reporter == "" {
		cfg.Reporter = "xml"
	}
	if v, _ := cmd.Flags().GetStringSlice("whitelist"); len(v) > 0 {
		cfg.Whitelist = v
	}
	if v, _ := cmd.Flags().GetStringSlice("blacklist"); len(v) > 0 {
		cfg.Blacklist = v
	}
	if v, _ := cmd.Flags().GetString("scope"); v != "" {
		cfg.Scope = v
	}
	if v, _ := cmd.Flags().GetInt("verbosity"); v != 0 {
		cfg.Verbosity = v
	}
	if v, _ := cmd.Flags().GetBool("debug"); v {
		cfg.Debug = true
	}
	if v, _ := cmd.Flags().GetStringSlice("stable-arches"); len(v) > 0 {
		cfg.StableArches = v
	}
}

func buildReporter(cfg *config.Config) (reporter.Reporter, error) {
	dest := cfg.Reporter
	if dest == "" {
		dest = "line"
	}

	sink, err := sinkFor(dest, cfg)
	if err != nil {
		return nil, err
	}
	return reporter.New(sink, cfg.Verbosity, nil), nil
}

func sinkFor(dest string, cfg *config.Config) (reporter.Sink, error) {
	switch dest {
	case "line":
		return reporter.NewLineSink(os.Stdout), nil
	case "grouped":
		return reporter.NewGroupedSink(os.Stdout), nil
	case "ndjson":
		return reporter.NewNDJSONSink(os.Stdout), nil
	case "xml":
		return reporter.NewXMLSink(os.Stdout), nil
	case "stream":
		return reporter.NewStreamSink(os.Stdout), nil
	case "batch":
		return reporter.NewBatchSink(os.Stdout), nil
	case "http":
		if cfg.HTTPHost == "" {
			return nil, &pkgerr.ConfigurationError{Message: "http reporter requires http_host"}
		}
		return reporter.NewHTTPSink(cfg.HTTPHost, 10*time.Second), nil
	case "kafka":
		if cfg.KafkaTopic == "" || len(cfg.KafkaBrokers) == 0 {
			return nil, &pkgerr.ConfigurationError{Message: "kafka reporter requires kafka_brokers and kafka_topic"}
		}
		return reporter.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, 3), nil
	case "pubsub":
		if cfg.PubSubProject == "" || cfg.PubSubTopic == "" {
			return nil, &pkgerr.ConfigurationError{Message: "pubsub reporter requires pubsub_project and pubsub_topic"}
		}
		return reporter.NewPubSubSink(context.Background(), cfg.PubSubProject, cfg.PubSubTopic)
	case "sqs":
		if cfg.SQSRegion == "" || cfg.SQSQueueURL == "" {
			return nil, &pkgerr.ConfigurationError{Message: "sqs reporter requires sqs_region and sqs_queue_url"}
		}
		return reporter.NewSQSSink(cfg.SQSRegion, cfg.SQSQueueURL)
	case "null":
		return nullSink{}, nil
	default:
		return nil, &pkgerr.ConfigurationError{Message: fmt.Sprintf("unknown reporter destination %q", dest)}
	}
}

type nullSink struct{}

func (nullSink) Write(*result.Result) error { return nil }
func (nullSink) Close() error                { return nil }
