package editor_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/editor"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/pkg/models"
)

// plainGateway hides Batcher so saves take the two-phase path.
type plainGateway struct{ gateway.Gateway }

type recordingNotifier struct{ novels, created, updated int }

func (n *recordingNotifier) NovelCreated(models.Novel) { n.novels++ }

func (n *recordingNotifier) ChapterSaved(_ models.Novel, _ models.Chapter, created bool) {
	if created {
		n.created++
	} else {
		n.updated++
	}
}

var author = identity.ReadySession(identity.User{ID: "author1", DisplayName: "Ann"})

func newSession(t *testing.T, gw gateway.Gateway) *editor.Session {
	t.Helper()
	s, err := editor.NewSession(gw, author, nil)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func createViaWizard(t *testing.T, s *editor.Session) *models.Novel {
	t.Helper()
	if err := s.StartWizard(); err != nil {
		t.Fatalf("start wizard: %v", err)
	}
	err := s.Wizard(func(w *editor.Wizard) error {
		w.SetDetails("T", "")
		if err := w.Next(); err != nil {
			return err
		}
		if err := w.SelectCover(editor.Covers[0]); err != nil {
			return err
		}
		if err := w.Next(); err != nil {
			return err
		}
		return w.SelectCategory("Fantasy")
	})
	if err != nil {
		t.Fatalf("wizard: %v", err)
	}
	n, err := s.FinishWizard(context.Background())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	return n
}

func TestEditorRequiresReadyIdentity(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	if _, err := editor.NewSession(gw, identity.AbsentSession(), nil); !errors.Is(err, apperr.Unauthenticated) {
		t.Fatalf("expected login required, got %v", err)
	}
	if _, err := editor.NewSession(gw, identity.LoadingSession(), nil); !errors.Is(err, apperr.SessionLoading) {
		t.Fatalf("expected loading, got %v", err)
	}
}

func TestWizardCreatesDraftNovel(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemoryGateway()
	s := newSession(t, gw)

	n := createViaWizard(t, s)
	if s.Mode() != editor.ModeEditing {
		t.Fatalf("expected editing, got %v", s.Mode())
	}
	stored, err := gw.GetNovel(ctx, n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.IsPublished || stored.ChapterCount != 0 || !reflect.DeepEqual(stored.Tags, []string{"Fantasy"}) {
		t.Fatalf("unexpected novel: %+v", stored)
	}
	if stored.Title != "T" || stored.CoverURL != editor.Covers[0] || stored.AuthorID != "author1" || stored.AuthorName != "Ann" {
		t.Fatalf("unexpected novel fields: %+v", stored)
	}
}

func TestSaveFirstChapterSetsOrderAndCount(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemoryGateway()
	s := newSession(t, gw)
	n := createViaWizard(t, s)

	s.SetPageText("p1")
	s.AddPage()
	s.SetPageText("p2")
	ch, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ch.Order != 1 || !reflect.DeepEqual(ch.Pages, []string{"p1", "p2"}) || ch.Title != editor.UntitledChapter {
		t.Fatalf("unexpected chapter: %+v", ch)
	}
	stored, _ := gw.GetNovel(ctx, n.ID)
	if stored.ChapterCount != 1 {
		t.Fatalf("expected chapterCount 1, got %d", stored.ChapterCount)
	}
	persisted, _ := gw.ListChapters(ctx, n.ID)
	if len(persisted) != 1 || persisted[0].Order != 1 {
		t.Fatalf("unexpected persisted chapters: %+v", persisted)
	}

	snap := s.Snapshot()
	if snap.Buffer.ChapterID != ch.ID || len(snap.Chapters) != 1 || snap.Novel.ChapterCount != 1 {
		t.Fatalf("saved chapter should become active: %+v", snap)
	}
}

func TestSaveExistingChapterOverwrites(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemoryGateway()
	gw.PutNovel(models.Novel{ID: "n1", AuthorID: "author1", Title: "Mine", ChapterCount: 1})
	gw.PutChapter("n1", models.Chapter{ID: "c1", Title: "One", Pages: []string{"old"}, Order: 1})
	notify := &recordingNotifier{}
	s := newSession(t, gw)
	s.SetNotifier(notify)

	if err := s.OpenNovel(ctx, "n1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SelectChapter("c1"); err != nil {
		t.Fatalf("select: %v", err)
	}
	s.SetPageText("new")
	s.SetChapterTitle("One, revised")
	if _, err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	chapters, _ := gw.ListChapters(ctx, "n1")
	if len(chapters) != 1 || chapters[0].Title != "One, revised" || chapters[0].Pages[0] != "new" || chapters[0].Order != 1 {
		t.Fatalf("unexpected chapters: %+v", chapters)
	}
	n, _ := gw.GetNovel(ctx, "n1")
	if n.ChapterCount != 1 {
		t.Fatalf("overwrite must not change count, got %d", n.ChapterCount)
	}
	if notify.updated != 1 || notify.created != 0 {
		t.Fatalf("unexpected notifications: %+v", notify)
	}
}

func TestTwoPhaseSavePartialFailure(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemoryGateway()
	mem.PutNovel(models.Novel{ID: "n1", AuthorID: "author1", Title: "Mine"})
	s := newSession(t, plainGateway{mem})
	if err := s.OpenNovel(ctx, "n1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	mem.Fail(gateway.OpUpdateNovel, errors.New("quota exceeded"))
	ch, err := s.Save(ctx)
	if !errors.Is(err, apperr.WriteFailed) || !apperr.IsPartialSave(err) {
		t.Fatalf("expected partial save failure, got %v", err)
	}
	if ch.ID == "" || ch.Order != 1 {
		t.Fatalf("chapter should have been created: %+v", ch)
	}
	if snap := s.Snapshot(); len(snap.Chapters) != 1 || snap.Buffer.ChapterID != ch.ID {
		t.Fatalf("created chapter should stay in the session: %+v", snap)
	}

	mem.Clear(gateway.OpUpdateNovel)
	fixed, err := gateway.ReconcileChapterCount(ctx, mem, "n1")
	if err != nil || !fixed {
		t.Fatalf("reconcile: fixed=%v err=%v", fixed, err)
	}
	n, _ := mem.GetNovel(ctx, "n1")
	if n.ChapterCount != 1 {
		t.Fatalf("expected repaired count 1, got %d", n.ChapterCount)
	}
}

func TestSaveFailureLeavesSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemoryGateway()
	mem.PutNovel(models.Novel{ID: "n1", AuthorID: "author1"})
	s := newSession(t, mem)
	s.OpenNovel(ctx, "n1")

	mem.Fail(gateway.OpCreateChapter, errors.New("offline"))
	if _, err := s.Save(ctx); !errors.Is(err, apperr.WriteFailed) {
		t.Fatalf("expected write failure, got %v", err)
	}
	if snap := s.Snapshot(); len(snap.Chapters) != 0 || !snap.Buffer.IsNew() {
		t.Fatalf("failed save must not change the session: %+v", snap)
	}
}

func TestModeTransitions(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemoryGateway()
	gw.PutNovel(models.Novel{ID: "theirs", AuthorID: "someone"})
	s := newSession(t, gw)

	if err := s.Exit(); !errors.Is(err, apperr.InvalidTransition) {
		t.Fatalf("exit from dashboard should be invalid, got %v", err)
	}
	if err := s.AddPage(); !errors.Is(err, apperr.InvalidTransition) {
		t.Fatalf("editing ops from dashboard should be invalid, got %v", err)
	}
	if err := s.OpenNovel(ctx, "theirs"); !errors.Is(err, apperr.PermissionDenied) {
		t.Fatalf("opening another author's novel should be denied, got %v", err)
	}

	s.StartWizard()
	if err := s.StartWizard(); !errors.Is(err, apperr.InvalidTransition) {
		t.Fatalf("wizard to wizard should be invalid, got %v", err)
	}
	if _, err := s.FinishWizard(ctx); err == nil {
		t.Fatal("finishing an empty wizard must fail")
	}
	if err := s.CancelWizard(); err != nil || s.Mode() != editor.ModeDashboard {
		t.Fatalf("cancel: %v mode=%v", err, s.Mode())
	}

	createViaWizard(t, s)
	if err := s.StartWizard(); !errors.Is(err, apperr.InvalidTransition) {
		t.Fatalf("editing to wizard should be invalid, got %v", err)
	}
	if err := s.Exit(); err != nil || s.Mode() != editor.ModeDashboard {
		t.Fatalf("exit: %v mode=%v", err, s.Mode())
	}
}

func TestDashboardListsOwnNovels(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	gw.PutNovel(models.Novel{ID: "mine", AuthorID: "author1"})
	gw.PutNovel(models.Novel{ID: "theirs", AuthorID: "someone"})
	s := newSession(t, gw)

	novels, err := s.LoadDashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(novels) != 1 || novels[0].ID != "mine" {
		t.Fatalf("unexpected dashboard: %+v", novels)
	}
}

func TestNewChapterClearsBufferAndPreview(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	s := newSession(t, gw)
	createViaWizard(t, s)

	s.SetChapterTitle("Draft")
	s.SetPageText("text")
	s.AddPage()
	s.NewChapter()
	snap := s.Snapshot()
	if snap.Buffer.Title != "" || !reflect.DeepEqual(snap.Buffer.Pages, []string{""}) || snap.Buffer.Cursor != 0 {
		t.Fatalf("expected cleared buffer, got %+v", snap.Buffer)
	}

	s.SmallerFont()
	p, err := s.Preview()
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if p.EditorFont != 16 || p.FontSize != 12 {
		t.Fatalf("unexpected preview sizes: %+v", p)
	}
}

func TestFinishWizardRejectsClearedTitle(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	s := newSession(t, gw)
	s.StartWizard()
	s.Wizard(func(w *editor.Wizard) error {
		w.SetDetails("T", "")
		w.Next()
		w.SelectCover(editor.Covers[0])
		w.Next()
		w.SelectCategory("Fantasy")
		w.SetDetails("  ", "")
		return nil
	})
	if _, err := s.FinishWizard(context.Background()); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if s.Mode() != editor.ModeWizard {
		t.Fatalf("expected to stay in the wizard, got %v", s.Mode())
	}
	if gw.Calls(gateway.OpCreateNovel) != 0 {
		t.Fatal("no novel should be written")
	}
}

// blockingGateway holds CreateChapter until release is closed.
type blockingGateway struct {
	gateway.Gateway
	entered chan struct{}
	release chan struct{}
}

func (g *blockingGateway) CreateChapter(ctx context.Context, novelID string, ch *models.Chapter) (string, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return g.Gateway.CreateChapter(ctx, novelID, ch)
}

func TestNewChapterDuringSaveKeepsBothChapters(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemoryGateway()
	gw := &blockingGateway{Gateway: mem, entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := newSession(t, gw)
	n := createViaWizard(t, s)

	s.SetChapterTitle("One")
	s.SetPageText("first chapter text")
	done := make(chan error, 1)
	go func() {
		_, err := s.Save(ctx)
		done <- err
	}()

	<-gw.entered
	if err := s.NewChapter(); err != nil {
		t.Fatalf("new chapter: %v", err)
	}
	s.SetChapterTitle("Two")
	s.SetPageText("second chapter text")
	close(gw.release)
	if err := <-done; err != nil {
		t.Fatalf("first save: %v", err)
	}

	snap := s.Snapshot()
	if snap.Buffer.ChapterID != "" || snap.Buffer.Title != "Two" || len(snap.Chapters) != 1 {
		t.Fatalf("new buffer must stay unsaved: %+v", snap.Buffer)
	}

	ch, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if ch.Order != 2 {
		t.Fatalf("expected order 2, got %d", ch.Order)
	}
	persisted, _ := mem.ListChapters(ctx, n.ID)
	models.SortChapters(persisted)
	if len(persisted) != 2 || persisted[0].Title != "One" || persisted[1].Title != "Two" {
		t.Fatalf("expected both chapters kept, got %+v", persisted)
	}
	if !reflect.DeepEqual(persisted[0].Pages, []string{"first chapter text"}) {
		t.Fatalf("first chapter was overwritten: %+v", persisted[0])
	}
}

func TestEditsDuringSaveStayBoundToSavedChapter(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemoryGateway()
	gw := &blockingGateway{Gateway: mem, entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := newSession(t, gw)
	n := createViaWizard(t, s)

	s.SetPageText("draft")
	done := make(chan error, 1)
	go func() {
		_, err := s.Save(ctx)
		done <- err
	}()
	<-gw.entered
	s.SetPageText("revised")
	close(gw.release)
	if err := <-done; err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := s.Save(ctx); err != nil {
		t.Fatalf("resave: %v", err)
	}
	persisted, _ := mem.ListChapters(ctx, n.ID)
	if len(persisted) != 1 || !reflect.DeepEqual(persisted[0].Pages, []string{"revised"}) {
		t.Fatalf("expected one chapter with the revision, got %+v", persisted)
	}
}
