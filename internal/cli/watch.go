package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trustchain/pkg/session"
)

var (
	inputStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	cursorStyle = lipgloss.NewStyle().Foreground(colorCyan)
	helpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// watchCommand creates the interactive viewer command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		userID  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "watch [domain]",
		Short: "Explore chains of trust interactively",
		Long: `Explore chains of trust interactively.

Type a domain and press enter to load it. While viewing, r refreshes,
[ and ] step one month back or forward, / edits the domain and q quits.
The last domain is remembered between runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if userID == "" {
				userID = cfg.UserID
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			sess := session.New(runner, userID)
			defer sess.Close()

			store, err := session.NewFileStore("")
			if err != nil {
				c.Logger.Warn("session store unavailable", "error", err)
				store = nil
			}

			var start session.Request
			switch {
			case len(args) == 1:
				start.Domain = args[0]
			case store != nil:
				if last, ok, err := store.Last(); err != nil {
					c.Logger.Warn("could not read last session", "error", err)
				} else if ok {
					start = last
				}
			}

			m := newWatchModel(cmd.Context(), sess, store, start)
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id forwarded to the chain API")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// loadedMsg carries the result of one session load.
type loadedMsg struct {
	state session.State
	err   error
}

// watchModel is the bubbletea model of the interactive viewer.
type watchModel struct {
	ctx   context.Context
	sess  *session.Session
	store *session.FileStore

	input   string
	editing bool
	loading bool
	start   session.Request

	state session.State
	err   error
}

func newWatchModel(ctx context.Context, sess *session.Session, store *session.FileStore, start session.Request) watchModel {
	return watchModel{
		ctx:     ctx,
		sess:    sess,
		store:   store,
		input:   start.Domain,
		editing: start.Domain == "",
		start:   start,
		state:   sess.Current(),
	}
}

func (m watchModel) Init() tea.Cmd {
	if m.start.Domain == "" {
		return nil
	}
	return m.load(m.start)
}

func (m watchModel) load(req session.Request) tea.Cmd {
	return m.run(func(ctx context.Context) (session.State, error) {
		return m.sess.Load(ctx, req)
	})
}

func (m watchModel) run(fn func(context.Context) (session.State, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		st, err := fn(ctx)
		return loadedMsg{state: st, err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return m.loaded(msg), nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateInput(msg)
		}
		return m.updateView(msg)
	}
	return m, nil
}

func (m watchModel) loaded(msg loadedMsg) watchModel {
	if errors.Is(msg.err, session.ErrSuperseded) {
		return m
	}
	m.loading = false
	m.state = msg.state
	m.err = msg.err
	if msg.err == nil && m.store != nil {
		// Save failures only cost the resume on next start.
		_ = m.store.Save(msg.state.Request)
	}
	return m
}

func (m watchModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		domain := strings.TrimSpace(m.input)
		if domain == "" {
			return m, nil
		}
		m.editing = false
		m.loading = true
		req := session.Request{Domain: domain, Date: m.sess.Pending().Date}
		return m, m.load(req)
	case tea.KeyEsc:
		if m.state.Request.Domain != "" {
			m.editing = false
			m.input = m.state.Request.Domain
		}
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m watchModel) updateView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "/":
		m.editing = true
	case "r":
		if m.sess.Pending().Domain == "" {
			return m, nil
		}
		m.loading = true
		return m, m.run(m.sess.Refresh)
	case "[", "]":
		if m.sess.Pending().Domain == "" {
			return m, nil
		}
		delta := 1
		if msg.String() == "[" {
			delta = -1
		}
		m.loading = true
		return m, m.run(func(ctx context.Context) (session.State, error) {
			return m.sess.ShiftMonth(ctx, delta)
		})
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("trustchain"))
	b.WriteString("\n\n")

	prompt := StyleDim.Render("domain ")
	if m.editing {
		b.WriteString(prompt + inputStyle.Render(m.input) + cursorStyle.Render("█"))
	} else {
		b.WriteString(prompt + StyleHighlight.Render(m.input))
	}
	month := m.state.Request.Date
	if m.loading {
		month = m.sess.Pending().Date
	}
	b.WriteString("   " + StyleDim.Render("month ") + StyleValue.Render(monthLabel(month)))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(StyleDim.Render("loading..."))
	case m.err != nil:
		b.WriteString(StyleError.Render(iconError + " " + m.err.Error()))
	case m.state.Seq > 0:
		b.WriteString(StyleDim.Render("loaded " + m.state.LoadedAt.Format("15:04:05")))
	}
	b.WriteString("\n\n")

	if m.state.Seq > 0 && m.err == nil {
		for _, l := range summaryLines(m.state.Summary) {
			b.WriteString(l + "\n")
		}
		if m.state.Graph.IsEmpty() {
			b.WriteString(StyleWarning.Render("no levels returned") + "\n")
		} else {
			b.WriteString(levelTable(m.state.Graph) + "\n")
		}
		b.WriteString(statsLine(m.state.Graph.NodeCount(), m.state.Graph.EdgeCount(), m.state.Cached))
		b.WriteString("\n\n")
	}

	if m.editing {
		b.WriteString(helpStyle.Render("enter load  esc cancel  ctrl+c quit"))
	} else {
		b.WriteString(helpStyle.Render("r refresh  [ ] month  / domain  q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func monthLabel(date string) string {
	if date == "" {
		return "current"
	}
	return date
}
