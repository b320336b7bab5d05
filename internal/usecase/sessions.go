package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"resume-studio/internal/doctree"
	"resume-studio/internal/editor"
	"resume-studio/internal/paginate"

	"github.com/google/uuid"
)

// ErrNoSession is returned for a document without an open live session.
var ErrNoSession = errors.New("no live session for document")

// LiveSession is one document open for editing. The client renders the
// tree, measures its pages and reports the heights; the paginator acts on
// them.
type LiveSession struct {
	DocID     uuid.UUID
	Session   *editor.Session
	Paginator *paginate.Paginator
	heights   *reportedHeights
}

// State is what clients poll for.
type State struct {
	DocID   uuid.UUID     `json:"doc_id"`
	Version int64         `json:"version"`
	Content *doctree.Node `json:"content"`
	Pending bool          `json:"pagination_pending"`
}

func (ls *LiveSession) State() State {
	doc, v := ls.Session.Snapshot()
	return State{DocID: ls.DocID, Version: v, Content: doc, Pending: ls.Paginator.Pending()}
}

// reportedHeights serves page heights measured by the client. They are only
// valid for the version they were measured on.
type reportedHeights struct {
	session *editor.Session

	mu      sync.Mutex
	version int64
	heights []float64
}

func (r *reportedHeights) set(version int64, heights []float64) {
	r.mu.Lock()
	r.version = version
	r.heights = append([]float64(nil), heights...)
	r.mu.Unlock()
}

func (r *reportedHeights) MeasurePage(index int, _ *doctree.Node) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version != r.session.Version() || index >= len(r.heights) {
		return 0, false
	}
	return r.heights[index], true
}

type SessionManager struct {
	docs DocumentsRepo
	opts paginate.Options
	log  *slog.Logger

	mu   sync.Mutex
	live map[uuid.UUID]*LiveSession
}

func NewSessionManager(docs DocumentsRepo, opts paginate.Options) *SessionManager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SessionManager{docs: docs, opts: opts, log: opts.Logger, live: map[uuid.UUID]*LiveSession{}}
}

// Open starts a live session on a stored document, or returns the one
// already open.
func (m *SessionManager) Open(ctx context.Context, id uuid.UUID) (*LiveSession, error) {
	m.mu.Lock()
	if ls, ok := m.live[id]; ok {
		m.mu.Unlock()
		return ls, nil
	}
	m.mu.Unlock()

	doc, err := m.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := doctree.CheckPageTree(doc.Content); err != nil {
		return nil, err
	}

	session := editor.NewSession(doc.Content)
	heights := &reportedHeights{session: session, version: -1}
	ls := &LiveSession{
		DocID:     id,
		Session:   session,
		Paginator: paginate.New(session, heights, m.opts),
		heights:   heights,
	}
	session.OnChange(func(int64) { ls.Paginator.Notify() })

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.live[id]; ok {
		ls.Paginator.Stop()
		return existing, nil
	}
	m.live[id] = ls
	m.log.Info("live session opened", "doc_id", id)
	return ls, nil
}

func (m *SessionManager) Get(id uuid.UUID) (*LiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ls, ok := m.live[id]
	if !ok {
		return nil, ErrNoSession
	}
	return ls, nil
}

// Apply dispatches a client transaction. A non-nil baseVersion makes the
// edit conditional on the session still being at that version.
func (m *SessionManager) Apply(id uuid.UUID, tr *editor.Transaction, baseVersion *int64) (State, error) {
	ls, err := m.Get(id)
	if err != nil {
		return State{}, err
	}
	if tr.Origin == "" {
		tr.Origin = "user"
	}
	if baseVersion != nil {
		err = ls.Session.DispatchAt(tr, *baseVersion)
	} else {
		err = ls.Session.Dispatch(tr)
	}
	if err != nil {
		return State{}, err
	}
	return ls.State(), nil
}

// ReportHeights records client measurements for version and schedules an
// overflow check. Heights for an older version are ignored.
func (m *SessionManager) ReportHeights(id uuid.UUID, version int64, heights []float64) (State, error) {
	ls, err := m.Get(id)
	if err != nil {
		return State{}, err
	}
	if version != ls.Session.Version() {
		return ls.State(), editor.ErrStale
	}
	ls.heights.set(version, heights)
	ls.Paginator.Notify()
	return ls.State(), nil
}

func (m *SessionManager) Undo(id uuid.UUID) (State, error) {
	ls, err := m.Get(id)
	if err != nil {
		return State{}, err
	}
	if err := ls.Session.Undo(); err != nil {
		return State{}, err
	}
	return ls.State(), nil
}

// Replace swaps the live tree, e.g. after a fill or a template switch on
// the stored document.
func (m *SessionManager) Replace(id uuid.UUID, doc *doctree.Node) bool {
	ls, err := m.Get(id)
	if err != nil {
		return false
	}
	ls.Session.Replace(doc)
	return true
}

// Flush writes the live tree back to storage without closing the session.
func (m *SessionManager) Flush(ctx context.Context, id uuid.UUID) error {
	ls, err := m.Get(id)
	if err != nil {
		return err
	}
	return m.persist(ctx, ls)
}

func (m *SessionManager) persist(ctx context.Context, ls *LiveSession) error {
	doc, err := m.docs.Get(ctx, ls.DocID)
	if err != nil {
		return err
	}
	doc.Content = ls.Session.Doc()
	doc.UpdatedAt = timeNow()
	return m.docs.Save(ctx, doc)
}

// Close persists the live tree and drops the session.
func (m *SessionManager) Close(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	ls, ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	ls.Paginator.Stop()
	if err := m.persist(ctx, ls); err != nil {
		return err
	}
	m.log.Info("live session closed", "doc_id", id, "version", ls.Session.Version())
	return nil
}

// Shutdown closes every session, persisting what it can.
func (m *SessionManager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		if err := m.Close(ctx, id); err != nil {
			m.log.Error("persist session on shutdown", "doc_id", id, "error", err)
		}
	}
}
