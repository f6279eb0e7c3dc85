package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"hireflow/internal/config"
	"hireflow/internal/interview"
	"hireflow/internal/logging"
	"hireflow/internal/platform"
	"hireflow/internal/proctor"
	"hireflow/internal/session"
	"hireflow/pkg/models"
)

// focusBus is the terminal stand-in for browser visibility events: the
// candidate (or a test harness) raises focus-loss events explicitly.
type focusBus struct {
	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

func newFocusBus() *focusBus {
	return &focusBus{listeners: make(map[int]func())}
}

func (b *focusBus) Subscribe(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

func (b *focusBus) Emit() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func main() {
	baseURL := envOr("HIREFLOW_URL", "http://localhost:8080")
	token := os.Getenv("HIREFLOW_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "HIREFLOW_TOKEN is required (a candidate bearer token)")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logging.InitializeLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.CloseLogging()

	client := platform.NewClient(baseURL, token, 2*time.Minute)
	store := session.NewStore()
	engine := interview.NewOrchestrator(client, store)
	bus := newFocusBus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		trackerMu sync.Mutex
		tracker   *proctor.Tracker
	)
	stopTracker := func() {
		trackerMu.Lock()
		defer trackerMu.Unlock()
		if tracker != nil {
			tracker.Stop()
			tracker = nil
		}
	}
	startTracker := func(applicationID string) {
		trackerMu.Lock()
		defer trackerMu.Unlock()

		tracker = proctor.NewTracker(applicationID, client, nil, proctor.Config{
			Debounce:      cfg.Interview.ViolationDebounce,
			TeardownDelay: cfg.Interview.TeardownDelay,
		})
		tracker.OnUpdate = func(s proctor.State) {
			if s.Status == proctor.StatusWarned {
				fmt.Printf("\n[proctor] focus-loss warning %d of %d\n> ", s.Count, cfg.Interview.MaxViolations)
			}
		}
		tracker.OnTerminated = func(s proctor.State) {
			engine.Terminate()
			fmt.Printf("\n[proctor] interview terminated after %d violations\n> ", s.Count)
		}
		tracker.OnTeardown = func() {
			fmt.Printf("\n[proctor] session closed\n> ")
			engine.Reset()
			stopTracker()
		}
		tracker.Attach(ctx, bus)
	}

	fmt.Println("HireFlow interview console. Type /help for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/help":
			printHelp()
		case line == "/quit":
			stopTracker()
			return
		case line == "/jobs":
			listJobs(ctx, client)
		case strings.HasPrefix(line, "/select "):
			selectJob(ctx, engine, strings.TrimSpace(strings.TrimPrefix(line, "/select")))
		case strings.HasPrefix(line, "/apply"):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "/apply"))
			apply(ctx, engine, startTracker, arg)
		case line == "/blur":
			bus.Emit()
		case line == "/status":
			printStatus(engine, store)
		case line == "/transcript":
			for _, msg := range store.Messages() {
				fmt.Printf("  [%s] %s\n", msg.Sender, msg.Text)
			}
		case line == "/done":
			if err := engine.Complete(); err != nil {
				fmt.Println("error:", err)
			} else {
				stopTracker()
				fmt.Println("Interview finished. Good luck!")
			}
		case strings.HasPrefix(line, "/"):
			fmt.Println("unknown command, try /help")
		default:
			sendMessage(ctx, engine, store, line)
		}
		fmt.Print("> ")
	}
}

func printHelp() {
	fmt.Println(`  /jobs                list open jobs
  /select <job-id>     start an application for a job
  /apply <file|profile> submit a résumé file, or the profile résumé
  /done                finish the interview
  /blur                simulate a focus loss
  /status              show phase, score and violation state
  /transcript          print the conversation so far
  /quit                exit
  anything else is sent as your interview answer`)
}

func listJobs(ctx context.Context, client *platform.Client) {
	jobs, err := client.ListJobs(ctx, models.JobFilter{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, job := range jobs {
		fmt.Printf("  %s  %s @ %s (%s, %s)\n", job.ID, job.Title, job.Company, job.Location, job.WorkMode)
	}
}

func selectJob(ctx context.Context, engine *interview.Orchestrator, jobID string) {
	job, err := engine.SelectJob(ctx, jobID)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("Applying for %s at %s. Submit a résumé with /apply.\n", job.Title, job.Company)
}

func apply(ctx context.Context, engine *interview.Orchestrator, startTracker func(string), arg string) {
	var upload *platform.ResumeUpload
	useProfile := false

	switch arg {
	case "", "profile":
		useProfile = true
	default:
		content, err := os.ReadFile(arg)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		upload = &platform.ResumeUpload{Filename: filepath.Base(arg), Content: content}
	}

	resp, err := engine.SubmitResume(ctx, upload, useProfile)
	if err != nil {
		var dup *interview.AlreadyAppliedError
		if errors.As(err, &dup) {
			fmt.Println("error:", dup.Error())
			return
		}
		fmt.Println("error:", err)
		return
	}

	if resp.ATSScore != nil {
		fmt.Printf("Résumé received. ATS score: %d/100.\n", *resp.ATSScore)
	} else {
		fmt.Println("Résumé received.")
	}
	fmt.Println("interviewer:", resp.Reply)
	startTracker(resp.ApplicationID)
	fmt.Println("[proctor] monitoring started: leaving this window counts as a violation")
}

func sendMessage(ctx context.Context, engine *interview.Orchestrator, store *session.Store, text string) {
	if err := engine.SendMessage(ctx, text); err != nil &&
		!errors.Is(err, interview.ErrMessageInFlight) {
		// The fallback reply is already in the transcript for request
		// failures; precondition errors need their own line.
		if errors.Is(err, interview.ErrNoActiveJob) || errors.Is(err, interview.ErrResumeRequired) ||
			errors.Is(err, interview.ErrInterviewNotActive) {
			fmt.Println("error:", err)
			return
		}
	}
	msgs := store.Messages()
	if len(msgs) > 0 && msgs[len(msgs)-1].Sender == models.SenderAssistant {
		fmt.Println("interviewer:", msgs[len(msgs)-1].Text)
	}
}

func printStatus(engine *interview.Orchestrator, store *session.Store) {
	fmt.Println("  phase:", engine.Phase())
	if job := store.Job(); job != nil {
		fmt.Printf("  job: %s @ %s\n", job.Title, job.Company)
	}
	if score := store.ATSScore(); score != nil {
		fmt.Printf("  ats score: %d/100\n", *score)
	}
	if id := store.ApplicationID(); id != "" {
		fmt.Println("  application:", id)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
