package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/yaplingo/echo/internal/api"
	"github.com/yaplingo/echo/internal/audio"
	"github.com/yaplingo/echo/internal/score"
	"github.com/yaplingo/echo/internal/session"
	"github.com/yaplingo/echo/internal/transcript"
)

// confirmWindow is how long a skip request stays armed before it must be
// repeated from scratch.
const confirmWindow = 10 * time.Second

// terminalPresenter renders session progress as plain terminal text.
//
// Relinquish confirmation is a repeat-the-command gesture rather than an
// inline y/n prompt, so stdin stays dedicated to the command reader.
type terminalPresenter struct {
	out io.Writer

	mu      sync.Mutex
	armedAt time.Time
}

func newTerminalPresenter(out io.Writer) *terminalPresenter {
	return &terminalPresenter{out: out}
}

func (p *terminalPresenter) ShowSession(_ context.Context, s *api.TranscriptSession) {
	fmt.Fprintf(p.out, "\ntopic: %s\nscenario: %s\n%d prompts. commands: record, stop, say, flip, next, quit, status\n",
		s.Topic, s.Scenario, len(s.Items))
}

func (p *terminalPresenter) ShowPrompt(_ context.Context, item api.Transcript, index, total int, flipped bool) {
	label := item.Text
	if flipped && strings.TrimSpace(item.Sequence) != "" {
		label = transcript.FormatPhonetic(item.Sequence)
	}
	fmt.Fprintf(p.out, "\n[%d/%d] %s\n", index+1, total, label)
}

func (p *terminalPresenter) ShowAnalyzing(context.Context) {
	fmt.Fprintln(p.out, "analyzing pronunciation...")
}

func (p *terminalPresenter) ShowScore(_ context.Context, summary score.Summary, result *api.Result) {
	fmt.Fprintf(p.out, "\nscore: %d%% (%s)\n", summary.Percentage, summary.Message)

	words := transcript.Words(result)
	if len(words) > 0 {
		parts := make([]string, len(words))
		for i, word := range words {
			if word.Band == score.BandGood {
				parts[i] = word.Word
			} else {
				parts[i] = fmt.Sprintf("%s(%s)", word.Word, word.Band)
			}
		}
		fmt.Fprintf(p.out, "words: %s\n", strings.Join(parts, " "))
	}

	tokens := transcript.Tokens(result)
	if len(tokens) > 0 {
		var b strings.Builder
		for i, token := range tokens {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(token.Token)
			if token.Band != score.BandGood {
				fmt.Fprintf(&b, "(%s)", token.Band)
			}
			if token.Last && i < len(tokens)-1 {
				b.WriteString(" |")
			}
		}
		fmt.Fprintf(p.out, "tokens: %s\n", b.String())
	}

	if text := strings.TrimSpace(result.Feedback.Text); text != "" {
		fmt.Fprintf(p.out, "feedback: %s\n", text)
	}
}

func (p *terminalPresenter) ShowSpeakUp(context.Context) {
	fmt.Fprintln(p.out, "no speech detected, try again")
}

func (p *terminalPresenter) ShowError(_ context.Context, message string) {
	fmt.Fprintf(p.out, "error: %s\n", message)
}

// ConfirmRelinquish arms on the first request and confirms when the same
// gesture repeats inside the window.
func (p *terminalPresenter) ConfirmRelinquish(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if !p.armedAt.IsZero() && now.Sub(p.armedAt) <= confirmWindow {
		p.armedAt = time.Time{}
		return true
	}

	p.armedAt = now
	fmt.Fprintln(p.out, "this prompt is not scored yet; repeat the command to skip it")
	return false
}

// referencePlayer resolves opaque audio references through the service and
// plays them locally.
type referencePlayer struct {
	client *api.Client
	player *audio.Player
}

var _ session.Player = (*referencePlayer)(nil)

func (p *referencePlayer) Play(ctx context.Context, reference string) error {
	data, err := p.client.FetchAudio(ctx, reference)
	if err != nil {
		return fmt.Errorf("fetch reference audio: %w", err)
	}
	return p.player.PlayWAV(ctx, data)
}
