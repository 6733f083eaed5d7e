package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.temporal.io/sdk/client"

	"github.com/leowmjw/go-chart-viewport/pkg/chart"
	"github.com/leowmjw/go-chart-viewport/pkg/hcl"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/temporal"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	var (
		configPath  string
		seriesPath  string
		scriptPath  string
		chartID     string
		address     string
		namespace   string
		displayJSON bool
		mode        string // "local" or "remote"
	)

	flag.StringVar(&configPath, "config", "", "Chart config: .hcl, .json, .yaml file or a directory of .hcl files (required)")
	flag.StringVar(&seriesPath, "series", "", "Series JSON file")
	flag.StringVar(&scriptPath, "script", "", "JSON-lines file of inputs, - for stdin")
	flag.StringVar(&chartID, "chart", "cli", "Chart ID in remote mode")
	flag.StringVar(&address, "address", "localhost:7233", "Address of Temporal server")
	flag.StringVar(&namespace, "namespace", "default", "Temporal namespace")
	flag.BoolVar(&displayJSON, "json", false, "Display the final view as JSON")
	flag.StringVar(&mode, "mode", "local", "Operation mode: 'local' or 'remote'")
	flag.Parse()

	if configPath == "" {
		logger.Error("Config parameter is required")
		flag.Usage()
		os.Exit(1)
	}
	if mode != "local" && mode != "remote" {
		logger.Error("Mode must be either 'local' or 'remote'")
		os.Exit(1)
	}

	cfg, err := hcl.LoadConfigFile(configPath)
	if err != nil {
		logger.Error("Failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	var payload *series.Payload
	if seriesPath != "" {
		p, err := loadSeries(seriesPath)
		if err != nil {
			logger.Error("Failed to load series", "path", seriesPath, "error", err)
			os.Exit(1)
		}
		payload = &p
	}

	inputs, err := openScript(scriptPath)
	if err != nil {
		logger.Error("Failed to read script", "path", scriptPath, "error", err)
		os.Exit(1)
	}

	var view chart.View
	if mode == "local" {
		view, err = replay(cfg, payload, inputs, logger)
	} else {
		view, err = replayRemote(context.Background(), address, namespace, chartID, cfg, payload, inputs, logger)
	}
	if err != nil {
		logger.Error("Replay failed", "error", err)
		os.Exit(1)
	}

	displayView(os.Stdout, view, displayJSON, logger)
}

func loadSeries(path string) (series.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return series.Payload{}, err
	}
	s, err := series.ParsePayload(data)
	if err != nil {
		return series.Payload{}, err
	}
	return series.PayloadOf(s), nil
}

func openScript(path string) ([]temporal.Input, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		return parseScript(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseScript(bytes.NewReader(data))
}

// parseScript reads one Input per line. Blank lines and lines starting with
// # are skipped.
func parseScript(r io.Reader) ([]temporal.Input, error) {
	var inputs []temporal.Input
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var in temporal.Input
		if err := json.Unmarshal([]byte(text), &in); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !in.Kind.Valid() {
			return nil, fmt.Errorf("line %d: %w: %q", line, temporal.ErrUnknownInput, in.Kind)
		}
		inputs = append(inputs, in)
	}
	return inputs, scanner.Err()
}

// replay runs the inputs against an in-process engine
func replay(cfg chart.Config, payload *series.Payload, inputs []temporal.Input, logger *slog.Logger) (chart.View, error) {
	engine, err := chart.New(cfg, chart.WithLogger(logger))
	if err != nil {
		return chart.View{}, err
	}
	engine.OnIntervalRequested(func(key string) {
		logger.Info("Interval requested, keeping current series offline", "key", key)
	})

	if payload != nil {
		s, err := payload.ToSeries()
		if err != nil {
			return chart.View{}, err
		}
		if err := engine.SetSeries(s); err != nil {
			return chart.View{}, err
		}
	}

	for i, in := range inputs {
		if in.Kind == temporal.InputClose {
			break
		}
		outcome, err := temporal.Apply(engine, in)
		if err != nil {
			logger.Warn("Input rejected", "step", i, "kind", in.Kind, "error", err)
			continue
		}
		logger.Debug("Input applied", "step", i, "kind", in.Kind, "outcome", outcome.String())
	}
	return engine.Frame().View(), nil
}

// replayRemote runs the inputs through a chart session on a Temporal server
func replayRemote(ctx context.Context, address, namespace, chartID string, cfg chart.Config,
	payload *series.Payload, inputs []temporal.Input, logger *slog.Logger) (chart.View, error) {
	c, err := client.Dial(client.Options{
		HostPort:  address,
		Namespace: namespace,
	})
	if err != nil {
		return chart.View{}, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	sessions := temporal.NewSessionClient(c, "")
	workflowID, err := sessions.Start(ctx, temporal.SessionParams{ChartID: chartID, Config: cfg, Series: payload})
	if err != nil {
		return chart.View{}, err
	}
	logger.Info("Started chart session", "workflow_id", workflowID, "inputs", len(inputs))

	for _, in := range inputs {
		if err := sessions.Signal(ctx, chartID, in); err != nil {
			return chart.View{}, err
		}
	}
	view, err := sessions.Render(ctx, chartID)
	if errors.Is(err, temporal.ErrNoView) {
		return view, fmt.Errorf("session %s has nothing to render", chartID)
	}
	return view, err
}

// displayView shows the view in human-readable or JSON format
func displayView(w io.Writer, view chart.View, jsonOutput bool, logger *slog.Logger) {
	if jsonOutput {
		viewJSON, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			logger.Error("Failed to marshal view to JSON", "error", err)
			fmt.Fprintf(w, "%+v\n", view)
		} else {
			fmt.Fprintln(w, string(viewJSON))
		}
		return
	}

	fmt.Fprintln(w, "Chart View:")
	fmt.Fprintf(w, "  Generation: %d\n", view.Generation)
	if view.Empty {
		fmt.Fprintln(w, "  (no data)")
		return
	}
	if view.Interval != "" {
		fmt.Fprintf(w, "  Interval: %s\n", view.Interval)
	}
	fmt.Fprintf(w, "  Transform: x=%.2f k=%.4f\n", view.Transform.X, view.Transform.K)
	fmt.Fprintf(w, "  Window: [%d, %d) more-left=%t more-right=%t\n",
		view.Window.Start, view.Window.End, view.Window.HasMoreLeft, view.Window.HasMoreRight)
	fmt.Fprintf(w, "  Y domain: %.4f .. %.4f\n", view.YDomain[0], view.YDomain[1])

	labels := make([]string, 0, len(view.XTicks))
	for _, t := range view.XTicks {
		labels = append(labels, t.Label)
	}
	fmt.Fprintf(w, "  X ticks: %s\n", strings.Join(labels, " "))
	if h := view.Hover; h != nil {
		fmt.Fprintf(w, "  Hover: #%d %s value=%.4f\n", h.Index, h.Date.Format("2006-01-02 15:04"), h.Value)
	}
}
