// Package app wires configuration, transport, audio, and the session loop
// behind the echo command surface.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/yaplingo/echo/internal/api"
	"github.com/yaplingo/echo/internal/audio"
	"github.com/yaplingo/echo/internal/auth"
	"github.com/yaplingo/echo/internal/cli"
	"github.com/yaplingo/echo/internal/config"
	"github.com/yaplingo/echo/internal/doctor"
	"github.com/yaplingo/echo/internal/ipc"
	"github.com/yaplingo/echo/internal/logging"
	"github.com/yaplingo/echo/internal/poller"
	"github.com/yaplingo/echo/internal/recorder"
	"github.com/yaplingo/echo/internal/session"
	"github.com/yaplingo/echo/internal/version"
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("echo"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("echo"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	if parsed.ServerURL != "" {
		cfgLoaded.Config.Server.BaseURL = strings.TrimSpace(parsed.ServerURL)
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	tokenPath, err := resolveTokenPath(cfgLoaded.Config)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded, tokenPath)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandLogin:
		return r.commandLogin(ctx, cfgLoaded.Config, tokenPath)
	case cli.CommandRegister:
		return r.commandRegister(ctx, cfgLoaded.Config, tokenPath)
	case cli.CommandWhoami:
		return r.commandWhoami(ctx, cfgLoaded.Config, tokenPath)
	case cli.CommandPractice:
		return r.commandPractice(ctx, cfgLoaded.Config, tokenPath, logger)
	default:
		if cli.IsControl(parsed.Command) {
			return r.forwardControl(ctx, string(parsed.Command))
		}
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// forwardControl sends one control command to the live practice session over
// its unix socket. Status degrades to "idle" when no session is running;
// every other control command requires one.
func (r Runner) forwardControl(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		if command == "status" {
			fmt.Fprintln(r.Stdout, "idle")
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		if command == "status" {
			fmt.Fprintln(r.Stdout, "idle")
			return 0
		}
		fmt.Fprintln(r.Stderr, "error: no active practice session")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	switch {
	case command == "status":
		if resp.Message != "" {
			fmt.Fprintf(r.Stdout, "%s (%s)\n", resp.State, resp.Message)
		} else {
			fmt.Fprintln(r.Stdout, resp.State)
		}
	case resp.Message != "":
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// tryForward distinguishes "no session listening" from a forwarding failure.
func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

// resolveTokenPath honors the config override, defaulting to the XDG state dir.
func resolveTokenPath(cfg config.Config) (string, error) {
	if path := strings.TrimSpace(cfg.Auth.TokenPath); path != "" {
		return path, nil
	}
	return auth.DefaultPath()
}

func newAPIClient(cfg config.Config, tokens api.TokenSource) *api.Client {
	return api.NewClient(api.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: time.Duration(cfg.Server.TimeoutMS) * time.Millisecond,
		Tokens:  tokens,
	})
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

// promptLine reads one input line for an interactive credential prompt. The
// reader must be shared across prompts so buffered lines are not dropped.
func (r Runner) promptLine(in *bufio.Reader, label string) (string, error) {
	fmt.Fprintf(r.Stdout, "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

func (r Runner) commandLogin(ctx context.Context, cfg config.Config, tokenPath string) int {
	in := bufio.NewReader(r.Stdin)
	name, err := r.promptLine(in, "name")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	password, err := r.promptLine(in, "password")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	store, err := auth.Open(tokenPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	token, err := newAPIClient(cfg, nil).Login(ctx, name, password)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: login failed: %v\n", err)
		return 1
	}
	if err := store.SetToken(token); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(r.Stdout, "logged in as %s\n", name)
	return 0
}

func (r Runner) commandRegister(ctx context.Context, cfg config.Config, tokenPath string) int {
	in := bufio.NewReader(r.Stdin)
	name, err := r.promptLine(in, "name")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	password, err := r.promptLine(in, "password")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	language, err := r.promptLine(in, "language")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	store, err := auth.Open(tokenPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	token, err := newAPIClient(cfg, nil).Register(ctx, name, password, language)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: register failed: %v\n", err)
		return 1
	}
	if err := store.SetToken(token); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(r.Stdout, "registered as %s\n", name)
	return 0
}

func (r Runner) commandWhoami(ctx context.Context, cfg config.Config, tokenPath string) int {
	store, err := auth.Open(tokenPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if !store.Authed() {
		fmt.Fprintln(r.Stderr, "error: not logged in; run `echo login` first")
		return 1
	}

	user, err := newAPIClient(cfg, store).Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrAuthExpired) {
			fmt.Fprintln(r.Stderr, "error: session expired; run `echo login` again")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(r.Stdout, "%s (%s)\n", user.Name, user.ID)
	return 0
}

func (r Runner) commandPractice(ctx context.Context, cfg config.Config, tokenPath string, logger *slog.Logger) int {
	store, err := auth.Open(tokenPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if !store.Authed() {
		fmt.Fprintln(r.Stderr, "error: not logged in; run `echo login` first")
		return 1
	}

	client := newAPIClient(cfg, store)
	guard := &audio.ModeGuard{}
	rec := recorder.NewController(cfg.Audio, logger, guard, recordingsDir())
	cache := session.NewResultCache()
	watcher := poller.New(client, cache, logger)
	presenter := newTerminalPresenter(r.Stdout)

	var player session.Player
	if cfg.Playback.Enable {
		player = &referencePlayer{client: client, player: audio.NewPlayer(guard)}
	}

	controller := session.NewController(session.Options{
		Logger:           logger,
		Fetcher:          client,
		Recorder:         rec,
		Submitter:        client,
		Watcher:          watcher,
		Player:           player,
		Presenter:        presenter,
		Cache:            cache,
		FeedbackAutoplay: cfg.Playback.FeedbackAutoplay,
		KeepRecordings:   cfg.Debug.KeepRecordings,
	})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	cleanupIPC := func() {}
	if socketPath, pathErr := ipc.RuntimeSocketPath(); pathErr == nil {
		listener, acquireErr := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
		if acquireErr != nil {
			if errors.Is(acquireErr, ipc.ErrAlreadyRunning) {
				fmt.Fprintln(r.Stderr, "error: a practice session is already running")
				return 1
			}
			fmt.Fprintf(r.Stderr, "error: %v\n", acquireErr)
			return 1
		}
		cleanupIPC = func() {
			_ = listener.Close()
			_ = os.Remove(socketPath)
		}
		go func() {
			serverErrCh <- ipc.Serve(serverCtx, listener, ipc.HandlerFunc(controller.Handle))
		}()
	} else {
		logger.Warn("control socket unavailable", "error", pathErr.Error())
		serverErrCh <- nil
	}
	defer cleanupIPC()

	go r.bridgeStdin(ctx, controller)

	runErr := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}

	r.printSessionSummary(controller.History())
	return 0
}

// printSessionSummary reports the attempts completed over the whole session.
func (r Runner) printSessionSummary(history []session.Attempt) {
	if len(history) == 0 {
		fmt.Fprintln(r.Stdout, "\nsession ended with no scored prompts")
		return
	}

	total := 0
	for _, attempt := range history {
		total += attempt.Summary.Percentage
	}
	fmt.Fprintf(r.Stdout, "\nsession complete: %d scored, average %d%%\n", len(history), total/len(history))
}

var stdinCommands = map[string]string{
	"r":      "record",
	"record": "record",
	"s":      "stop",
	"stop":   "stop",
	"p":      "say",
	"play":   "say",
	"say":    "say",
	"f":      "flip",
	"flip":   "flip",
	"n":      "next",
	"next":   "next",
	"q":      "quit",
	"quit":   "quit",
	"?":      "status",
	"status": "status",
}

// bridgeStdin forwards line commands from the terminal into the session.
func (r Runner) bridgeStdin(ctx context.Context, controller *session.Controller) {
	scanner := bufio.NewScanner(r.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}

		command, ok := stdinCommands[word]
		if !ok {
			fmt.Fprintf(r.Stdout, "unknown command %q (try: record, stop, say, flip, next, quit, status)\n", word)
			continue
		}

		resp := controller.Handle(ctx, ipc.Request{Command: command})
		switch {
		case !resp.OK:
			fmt.Fprintf(r.Stdout, "%s\n", resp.Error)
		case command == "status":
			fmt.Fprintf(r.Stdout, "%s (%s)\n", resp.State, resp.Message)
		}
	}
}

// recordingsDir places capture artifacts under the user state directory.
func recordingsDir() string {
	stateDir := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "echo", "recordings")
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "echo", "recordings")
}
