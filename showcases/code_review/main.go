// Command code_review runs the code review workflow, either as an HTTP
// service or once against a source file.
//
//	go run ./showcases/code_review -serve
//	go run ./showcases/code_review -file main.py -html report.html
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/smallnest/stepgraph/config"
	"github.com/smallnest/stepgraph/graph"
	"github.com/smallnest/stepgraph/log"
	"github.com/smallnest/stepgraph/server"
	"github.com/smallnest/stepgraph/workflows/codereview"
)

var (
	configPath = flag.String("config", "", "Path to a YAML config file")
	serve      = flag.Bool("serve", false, "Start the HTTP server")
	file       = flag.String("file", "", "Source file to review once (- for stdin)")
	title      = flag.String("title", "", "Report title")
	htmlOut    = flag.String("html", "", "Write the HTML report to this file")
)

var (
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(8)
	nodeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Width(12)
	durStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(12).Align(lipgloss.Right)
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2)
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	statusStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(lipgloss.Color("230")).Background(lipgloss.Color("63"))
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := log.NewGologLogger(cfg.LogLevel())
	log.SetDefaultLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runs, closeRuns, err := config.OpenRunStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeRuns()

	opts := []graph.ExecutorOption{graph.WithLogger(logger)}
	if !*serve {
		opts = append(opts, graph.WithListener(graph.NodeListenerFunc(printStep)))
	}

	svc := graph.NewService(graph.NewRegistry(), graph.NewMemoryGraphStore(), runs, graph.NewExecutor(runs, opts...))
	if _, err := codereview.Install(ctx, svc); err != nil {
		return err
	}
	for _, def := range cfg.Graphs {
		if _, err := svc.BuildGraph(ctx, def); err != nil {
			return fmt.Errorf("config graph %q: %w", def.ID, err)
		}
	}

	if *serve {
		logger.Info("store backend: %s", cfg.Store.Backend)
		return server.New(svc, server.WithLogger(logger)).ListenAndServe(ctx, cfg.Server.Addr())
	}

	if *file == "" {
		flag.Usage()
		return fmt.Errorf("either -serve or -file is required")
	}
	return reviewOnce(ctx, svc)
}

func reviewOnce(ctx context.Context, svc *graph.Service) error {
	code, err := readSource(*file)
	if err != nil {
		return err
	}

	initial := graph.State{"code": code}
	if *title != "" {
		initial["title"] = *title
	}

	res, err := svc.RunGraph(ctx, codereview.GraphID, initial)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(statusStyle.Render(fmt.Sprintf("%s  %s  %d steps", res.RunID, res.Status, len(res.Log))))
	fmt.Println()
	suggestions, _ := res.State["suggestions"].([]string)
	for _, s := range suggestions {
		fmt.Println(summaryStyle.Render("• " + s))
	}

	if *htmlOut != "" {
		report, _ := res.State["report_html"].(string)
		if err := os.WriteFile(*htmlOut, []byte(report), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Println()
		fmt.Println(summaryStyle.Render("report written to " + *htmlOut))
	}
	return nil
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(data), nil
}

func printStep(_ context.Context, ev graph.StepEvent) {
	switch ev.Event {
	case graph.NodeEventComplete:
		fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
			stepStyle.Render(fmt.Sprintf("#%d", ev.Step)),
			nodeStyle.Render(ev.NodeID),
			durStyle.Render(formatDuration(ev.Duration)),
			summaryStyle.Render(ev.Summary),
		))
	case graph.NodeEventError:
		fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
			stepStyle.Render(fmt.Sprintf("#%d", ev.Step)),
			nodeStyle.Render(ev.NodeID),
			errStyle.Render(strings.TrimSpace(ev.Error.Error())),
		))
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}
