package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/coordinator/internal/agent"
	"github.com/aristath/coordinator/internal/config"
	"github.com/aristath/coordinator/internal/events"
	"github.com/aristath/coordinator/internal/persistence"
	"github.com/aristath/coordinator/internal/scheduler"
	"github.com/aristath/coordinator/internal/tooling"
	"github.com/aristath/coordinator/internal/tui"
)

var (
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	styleFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	planPath := flag.String("plan", "", "path to plan JSON file (required)")
	parallel := flag.Bool("parallel", false, "execute independent tasks concurrently")
	workers := flag.Int("workers", 0, "parallel pool size (0 = config value)")
	watch := flag.Bool("watch", false, "show the live run dashboard")
	stage := flag.String("stage", "plan", "workflow stage used for tool scoping")
	flag.Parse()

	if *planPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: coordinator -plan <file.json> [-parallel] [-workers N] [-watch]")
		os.Exit(2)
	}

	// Signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	plan, err := loadPlan(*planPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading plan: %v\n", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building agent registry: %v\n", err)
		os.Exit(1)
	}

	toolDir, err := buildToolDirectory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building tool directory: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewBus()

	manager := tooling.NewManager(toolDir, tooling.WithManagerBus(bus))
	defer manager.ShutdownAll(context.Background())

	if tools := manager.GetToolsForScope(ctx, *stage, ""); len(tools) > 0 {
		log.Printf("%d tools available for stage %q", len(tools), *stage)
	}

	projectDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving working directory: %v\n", err)
		os.Exit(1)
	}

	ec := agent.NewExecutionContext("cli", projectDir)
	sched := scheduler.New(registry, ec, scheduler.WithBus(bus))

	maxWorkers := cfg.Scheduler.MaxWorkers
	if *workers > 0 {
		maxWorkers = *workers
	}

	started := time.Now()
	runErr := runPlan(ctx, sched, plan, *parallel, maxWorkers, *watch, bus)
	finished := time.Now()
	bus.Close()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error executing plan: %v\n", runErr)
	}

	if cfg.Scheduler.HistoryDB != "" {
		saveHistory(cfg.Scheduler.HistoryDB, plan, sched.Journal().Entries(), *parallel, started, finished)
	}

	failed := printOutcome(plan)
	if failed > 0 || runErr != nil {
		os.Exit(1)
	}
}

// runPlan executes the plan, optionally behind the live dashboard.
func runPlan(ctx context.Context, sched *scheduler.Scheduler, plan *scheduler.Plan, parallel bool, maxWorkers int, watch bool, bus *events.Bus) error {
	execute := func() error {
		if parallel {
			return sched.ExecutePlanParallel(ctx, plan, maxWorkers)
		}
		return sched.ExecutePlan(ctx, plan)
	}

	if !watch {
		return execute()
	}

	program := tea.NewProgram(tui.New(bus), tea.WithAltScreen())

	errChan := make(chan error, 1)
	go func() {
		err := execute()
		// Closing the bus tells the dashboard the run is over.
		bus.Close()
		errChan <- err
	}()

	if _, err := program.Run(); err != nil {
		log.Printf("WARNING: dashboard error: %v", err)
	}
	return <-errChan
}

// saveHistory flushes the finished run to the SQLite history store.
func saveHistory(dbPath string, plan *scheduler.Plan, journal []scheduler.Entry, parallel bool, started, finished time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := persistence.NewSQLiteStore(ctx, dbPath)
	if err != nil {
		log.Printf("WARNING: opening history store: %v", err)
		return
	}
	defer store.Close()

	run := persistence.RecordRun(plan, journal, parallel, started, finished)
	id, err := store.SaveRun(ctx, run)
	if err != nil {
		log.Printf("WARNING: saving run history: %v", err)
		return
	}
	log.Printf("Run saved to history as #%d", id)
}

// printOutcome writes the final task table and returns the number of failed
// top-level tasks.
func printOutcome(plan *scheduler.Plan) int {
	fmt.Printf("\n%s\n", plan.Objective)

	failed := 0
	for _, task := range plan.Tasks {
		printTask(task, "  ")
		if task.Status == scheduler.TaskFailed {
			failed++
		}
	}
	return failed
}

func printTask(task *scheduler.Task, indent string) {
	var status string
	switch task.Status {
	case scheduler.TaskCompleted:
		status = styleOK.Render("ok")
	case scheduler.TaskFailed:
		status = styleFailed.Render("FAILED")
	default:
		status = styleDim.Render(task.Status.String())
	}

	detail := ""
	if task.Result != nil && task.Result.Content != "" {
		detail = styleDim.Render(" - " + firstLine(task.Result.Content))
	}
	fmt.Printf("%s[%s] %s%s\n", indent, status, task.Description, detail)

	for _, sub := range task.SubTasks {
		printTask(sub, indent+"  ")
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
