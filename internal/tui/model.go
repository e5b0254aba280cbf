package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/planner"
	"github.com/javiermolinar/weekplan/internal/storage"
	"github.com/javiermolinar/weekplan/internal/task"
	"github.com/javiermolinar/weekplan/internal/tui/commands"
	"github.com/javiermolinar/weekplan/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeMove        // A task is grabbed and follows the cursor until dropped
	ModeModal
)

// ModalType identifies the type of modal.
type ModalType int

const (
	ModalNone     ModalType = iota
	ModalTaskForm           // Create or edit a task
	ModalConfirmDelete
	ModalMigrate // Offer to upload local tasks after sign in
)

// Layout constants.
const (
	rowLabelWidth = 6
	minColWidth   = 8
	modalWidth    = 56
	eventBuffer   = 32

	// parkingRow is the cursor row below the last afternoon position.
	parkingRow = 2 * task.MaxPositionsPerSlot

	// statusHold is how long a status stays before a pending clear may remove it.
	statusHold = 3 * time.Second
)

// Position is the cursor location. Rows 0..parkingRow-1 address week slots
// (period = Row / MaxPositionsPerSlot); parkingRow addresses the parking area,
// where Park is the position and Day is kept for returning to the week.
type Position struct {
	Day  int
	Row  int
	Park int
}

// Session is what the model needs from planner.Session.
type Session interface {
	commands.Session
	Snapshot() *task.Board
	Mode() storage.Mode
	Subscribe(fn func(planner.Event)) (unsubscribe func())
}

// Options configures the TUI.
type Options struct {
	Theme     string
	Auth      auth.Provider
	Logger    *zap.Logger
	Clipboard commands.Clipboard
}

// Model is the main TUI model.
type Model struct {
	session   Session
	auth      auth.Provider
	logger    *zap.Logger
	clipboard commands.Clipboard
	events    chan planner.Event

	theme  *theme.Theme
	styles *Styles

	board  *task.Board
	days   []task.Day
	cursor Position
	mode   Mode

	// Move mode
	moving *task.Task

	// Modal state
	modalType  ModalType
	modalTask  *task.Task  // Task being edited or deleted (nil for new)
	formTarget task.Bucket // Bucket a new task is added to
	formTitle  textinput.Model
	formNote   textinput.Model
	formFocus  int // 0=title, 1=note
	formErr    string

	pendingMigration int

	width    int
	height   int
	colWidth int

	statusMsg  string
	statusTime time.Time
}

// New creates a new TUI model over a loaded session.
func New(s Session, opts Options) Model {
	t, err := theme.Load(opts.Theme)
	if err != nil {
		t, _ = theme.Load(theme.DefaultName)
	}
	styles := NewStyles(t)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = commands.SystemClipboard
	}

	m := Model{
		session:   s,
		auth:      opts.Auth,
		logger:    logger,
		clipboard: clip,
		events:    make(chan planner.Event, eventBuffer),
		theme:     t,
		styles:    styles,
		mode:      ModeNormal,
		formTitle: newInput(styles, "Title", task.TitleMaxLen),
		formNote:  newInput(styles, "Note (optional)", task.NoteMaxLen),
		colWidth:  defaultColWidth,
	}
	m.refresh()
	return m
}

func newInput(styles *Styles, placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = modalWidth - 10
	in.PlaceholderStyle = styles.ModalPlaceholderStyle
	in.TextStyle = styles.ModalInputTextStyle
	in.PromptStyle = styles.ModalInputTextStyle
	in.Cursor.Style = styles.ModalInputCursorStyle
	in.Cursor.TextStyle = styles.ModalInputTextStyle
	return in
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return commands.WaitForEvent(m.events)
}

// subscribe forwards session events into the model's channel. Events are
// dropped rather than blocking the session when the UI falls behind.
func (m Model) subscribe() (unsubscribe func()) {
	return m.session.Subscribe(func(ev planner.Event) {
		select {
		case m.events <- ev:
		default:
			m.logger.Debug("dropping session event", zap.Stringer("kind", ev.Kind))
		}
	})
}

// Run starts the TUI on an already loaded session.
func Run(s *planner.Session, opts Options) error {
	m := New(s, opts)
	unsubscribe := m.subscribe()
	defer unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// refresh takes a new snapshot of the board and keeps the cursor in range.
func (m *Model) refresh() {
	m.board = m.session.Snapshot()
	m.days = m.board.Grid().Days()
	m.clampCursor()
}

func (m *Model) clampCursor() {
	m.cursor.Day = min(max(m.cursor.Day, 0), len(m.days)-1)
	m.cursor.Row = min(max(m.cursor.Row, 0), parkingRow)
	m.cursor.Park = min(max(m.cursor.Park, 0), m.parkingLimit())
}

// parkingLimit is the last parking column the cursor may reach. In move mode
// the cell after the last parked task is a valid drop target.
func (m Model) parkingLimit() int {
	n := len(m.board.Parked())
	if m.mode == ModeMove {
		return n
	}
	return max(n-1, 0)
}

func (m Model) onParking() bool {
	return m.cursor.Row == parkingRow
}

// cursorBucket returns the bucket under the cursor.
func (m Model) cursorBucket() task.Bucket {
	if m.onParking() {
		return task.ParkingBucket()
	}
	period := task.Periods[m.cursor.Row/task.MaxPositionsPerSlot]
	return task.WeekBucket(m.days[m.cursor.Day], period)
}

func (m Model) cursorIndex() int {
	if m.onParking() {
		return m.cursor.Park
	}
	return m.cursor.Row % task.MaxPositionsPerSlot
}

// cursorSlotID returns the drop target id of the cell under the cursor.
func (m Model) cursorSlotID() string {
	return task.LocationID(m.cursorBucket().At(m.cursorIndex()))
}

// taskAtCursor returns the task under the cursor, or nil for an empty cell.
func (m Model) taskAtCursor() *task.Task {
	tasks := m.board.Bucket(m.cursorBucket())
	if i := m.cursorIndex(); i < len(tasks) {
		return tasks[i]
	}
	return nil
}

// focus moves the cursor onto loc.
func (m *Model) focus(loc task.Location) {
	switch l := loc.(type) {
	case task.Week:
		for i, d := range m.days {
			if d == l.Day {
				m.cursor.Day = i
			}
		}
		for i, p := range task.Periods {
			if p == l.Period {
				m.cursor.Row = i*task.MaxPositionsPerSlot + l.Position
			}
		}
	case task.Parking:
		m.cursor.Row = parkingRow
		m.cursor.Park = l.Position
	}
	m.clampCursor()
}

func (m Model) currentUser() *auth.User {
	if m.auth == nil {
		return nil
	}
	return m.auth.CurrentUser()
}

func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusTime = time.Now()
	return commands.ClearStatusAfter()
}
