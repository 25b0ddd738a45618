// Command skillgraph is a thin CLI over the knowledge engine: it loads
// configuration, wires the engine and runs one operation against the
// graph store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gkf-org/skillgraph"
	"github.com/gkf-org/skillgraph/integrate"
	"github.com/gkf-org/skillgraph/mapping"
)

const usage = `usage: skillgraph [flags] <operation> [args]

operations:
  ping
  prereqs     <skillURI>
  related     <entityURI> <depth>
  courses     <jobURI>
  path        <jobURI> [heldSkillURI ...]
  next        <topK> <heldSkillURI> [heldSkillURI ...]
  demand      <skillURI>
  similarity  <skillURI> <skillURI>
  career      <startJobURI> <endJobURI>
  confidence  <entityURI>
  popularity  <entityURI>
  enrich      <entityURI>
  history     <userID>
  record      <userID> <interactionType> <entityURI>
  ingest      <sourceKind> <entityType> <idField> <field=property> [field=property ...]
  link        <source> <name> [typeHint]
`

func main() {
	configPath := flag.String("config", "", "path to config file (YAML or JSON)")
	timeout := flag.Duration("timeout", 60*time.Second, "operation timeout")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	applyEnv(&cfg)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	engine, err := skillgraph.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := run(ctx, engine, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		slog.Error("operation failed", "op", flag.Arg(0), "error", err)
		os.Exit(1)
	}
	if result != nil {
		out := json.NewEncoder(os.Stdout)
		out.SetIndent("", "  ")
		if err := out.Encode(result); err != nil {
			slog.Error("encoding result", "error", err)
			os.Exit(1)
		}
	}
}

func loadConfig(path string) (skillgraph.Config, error) {
	cfg := skillgraph.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing YAML config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing JSON config: %w", err)
		}
	}
	return cfg, nil
}

// applyEnv overrides store settings from environment variables.
func applyEnv(cfg *skillgraph.Config) {
	if v := os.Getenv("SKILLGRAPH_QUERY_ENDPOINT"); v != "" {
		cfg.Store.QueryEndpoint = v
	}
	if v := os.Getenv("SKILLGRAPH_UPDATE_ENDPOINT"); v != "" {
		cfg.Store.UpdateEndpoint = v
	}
	if v := os.Getenv("SKILLGRAPH_USERNAME"); v != "" {
		cfg.Store.Username = v
	}
	if v := os.Getenv("SKILLGRAPH_PASSWORD"); v != "" {
		cfg.Store.Password = v
	}
	if v := os.Getenv("SKILLGRAPH_FOUNDATIONAL_GRAPH"); v != "" {
		cfg.FoundationalGraph = v
	}
	if v := os.Getenv("SKILLGRAPH_EXPERIENTIAL_GRAPH"); v != "" {
		cfg.ExperientialGraph = v
	}
}

func run(ctx context.Context, engine skillgraph.Engine, op string, args []string) (any, error) {
	switch op {
	case "ping":
		if err := engine.Ping(ctx); err != nil {
			return nil, err
		}
		return map[string]string{"status": "ok"}, nil

	case "prereqs":
		if err := need(args, 1); err != nil {
			return nil, err
		}
		return engine.Prerequisites(ctx, args[0])

	case "related":
		if err := need(args, 2); err != nil {
			return nil, err
		}
		depth, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("bad depth %q: %w", args[1], err)
		}
		return engine.Related(ctx, args[0], depth)

	case "courses":
		if err := need(args, 1); err != nil {
			return nil, err
		}
		return engine.CoursesForJob(ctx, args[0])

	case "path":
		if err := need(args, 1); err != nil {
			return nil, err
		}
		return engine.LearningPath(ctx, args[0], args[1:])

	case "next":
		if err := need(args, 2); err != nil {
			return nil, err
		}
		topK, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad topK %q: %w", args[0], err)
		}
		return engine.NextSkills(ctx, args[1:], skillgraph.WithTopK(topK))

	case "demand":
		if err := need(args, 1); err != nil {
			return nil, err
		}
		return engine.SkillDemand(ctx, args[0])

	case "similarity":
		if err := need(args, 2); err != nil {
			return nil, err
		}
		return engine.SkillSimilarity(ctx, args[0], args[1])

	case "career":
		if err := need(args, 2); err != nil {
			return nil, err
		}
		return engine.AnalyzeCareerPath(ctx, args[0], args[1])

	case "confidence":
		if err := need(args, 1); err != nil {
			return nil, err
		}
		return engine.KnowledgeConfidence(ctx, args[0])

	case "popularity":
		if err := need(args, 1); err != nil {
			return nil, err
		}
		return engine.CoursePopularity(ctx, args[0])

	case "enrich":
		if err := need(args, 1); err != nil {
			return nil, err
		}
		return engine.EnrichEntity(ctx, args[0])

	case "history":
		if err := need(args, 1); err != nil {
			return nil, err
		}
		return engine.UserHistory(ctx, args[0])

	case "record":
		if err := need(args, 3); err != nil {
			return nil, err
		}
		uri, err := engine.RecordInteraction(ctx, integrate.Event{
			UserID:          args[0],
			InteractionType: args[1],
			EntityURI:       args[2],
		})
		if err != nil {
			return nil, err
		}
		return map[string]string{"interaction": uri}, nil

	case "ingest":
		if err := need(args, 4); err != nil {
			return nil, err
		}
		rules := mapping.Rules{
			EntityType: args[1],
			IDField:    args[2],
			Fields:     make(map[string]string),
		}
		for _, pair := range args[3:] {
			field, property, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("bad field mapping %q, want field=property", pair)
			}
			rules.Fields[field] = property
		}
		return engine.IngestRecords(ctx, args[0], rules)

	case "link":
		if err := need(args, 2); err != nil {
			return nil, err
		}
		typeHint := ""
		if len(args) > 2 {
			typeHint = args[2]
		}
		uri, err := engine.LinkEntity(ctx, args[0], args[1], typeHint)
		if err != nil {
			return nil, err
		}
		return map[string]string{"uri": uri}, nil

	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func need(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expected at least %d argument(s), got %d", n, len(args))
	}
	return nil
}
