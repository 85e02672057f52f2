package editor_test

import (
	"reflect"
	"testing"

	"github.com/binhbb2204/nocturne/internal/editor"
	"github.com/binhbb2204/nocturne/pkg/models"
)

func TestDeleteSinglePageClearsInPlace(t *testing.T) {
	b := editor.NewBuffer()
	b.SetText("draft")
	b.DeletePage()
	if len(b.Pages) != 1 || b.Pages[0] != "" || b.Cursor != 0 {
		t.Fatalf("expected one blank page, got %+v", b)
	}
}

func TestDeletePageMovesCursorBack(t *testing.T) {
	b := editor.BufferFor(models.Chapter{ID: "c1", Pages: []string{"a", "b", "c"}})
	b.GoTo(2)
	b.DeletePage()
	if !reflect.DeepEqual(b.Pages, []string{"a", "b"}) || b.Cursor != 1 {
		t.Fatalf("unexpected buffer: %+v", b)
	}
	b.GoTo(0)
	b.DeletePage()
	if !reflect.DeepEqual(b.Pages, []string{"b"}) || b.Cursor != 0 {
		t.Fatalf("deleting page 0 should keep cursor at 0: %+v", b)
	}
}

func TestAddPageMovesCursor(t *testing.T) {
	b := editor.NewBuffer()
	b.AddPage()
	b.AddPage()
	if len(b.Pages) != 3 || b.Cursor != 2 {
		t.Fatalf("unexpected buffer: %+v", b)
	}
	if err := b.GoTo(3); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestBufferForLegacyChapter(t *testing.T) {
	var ch models.Chapter
	if err := ch.UnmarshalJSON([]byte(`{"id":"c1","title":"Old","content":"single page","order":1}`)); err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := editor.BufferFor(ch)
	if !reflect.DeepEqual(b.Pages, []string{"single page"}) || b.Cursor != 0 || b.IsNew() {
		t.Fatalf("unexpected buffer: %+v", b)
	}
}

func TestSaveTitleDefaults(t *testing.T) {
	b := editor.NewBuffer()
	if b.SaveTitle() != editor.UntitledChapter {
		t.Fatalf("expected %q, got %q", editor.UntitledChapter, b.SaveTitle())
	}
	b.Title = "Prologue"
	if b.SaveTitle() != "Prologue" {
		t.Fatal("explicit title must be kept")
	}
}

func TestFontBoundsAndPreview(t *testing.T) {
	f := editor.FontSize(editor.DefaultFontSize)
	if f.Preview() != 14 {
		t.Fatalf("expected preview 14, got %d", f.Preview())
	}
	for i := 0; i < 20; i++ {
		f = f.Larger()
	}
	if f != editor.MaxFontSize {
		t.Fatalf("expected max %d, got %d", editor.MaxFontSize, f)
	}
	for i := 0; i < 20; i++ {
		f = f.Smaller()
	}
	if f != editor.MinFontSize || f.Preview() != editor.MinPreviewFontSize {
		t.Fatalf("expected min sizes, got %d / %d", f, f.Preview())
	}
}
