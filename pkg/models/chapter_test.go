package models_test

import (
	"encoding/json"
	"testing"

	"github.com/binhbb2204/nocturne/pkg/models"
)

func TestChapterDecodePages(t *testing.T) {
	var ch models.Chapter
	if err := json.Unmarshal([]byte(`{"id":"c1","title":"One","pages":["a","b"],"order":1}`), &ch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(ch.Pages) != 2 || ch.Pages[1] != "b" {
		t.Fatalf("unexpected pages: %v", ch.Pages)
	}
}

func TestChapterDecodeLegacyContent(t *testing.T) {
	var ch models.Chapter
	if err := json.Unmarshal([]byte(`{"id":"c1","title":"Old","content":"whole chapter","order":3}`), &ch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(ch.Pages) != 1 || ch.Pages[0] != "whole chapter" {
		t.Fatalf("expected legacy content as single page, got %v", ch.Pages)
	}
	if ch.Order != 3 {
		t.Fatalf("expected order 3, got %d", ch.Order)
	}
}

func TestChapterDecodeEmpty(t *testing.T) {
	var ch models.Chapter
	if err := json.Unmarshal([]byte(`{"id":"c1","pages":[]}`), &ch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(ch.Pages) != 1 || ch.Pages[0] != "" {
		t.Fatalf("expected one empty page, got %v", ch.Pages)
	}
}

func TestSortChaptersTieBreak(t *testing.T) {
	chs := []models.Chapter{
		{ID: "b", Order: 2},
		{ID: "z", Order: 1},
		{ID: "a", Order: 2},
	}
	models.SortChapters(chs)
	got := chs[0].ID + chs[1].ID + chs[2].ID
	if got != "zab" {
		t.Fatalf("expected zab, got %s", got)
	}
}

func TestInLibrary(t *testing.T) {
	u := &models.UserData{Library: []string{"n1"}}
	if !u.InLibrary("n1") || u.InLibrary("n2") {
		t.Fatal("unexpected membership result")
	}
	var nilUser *models.UserData
	if nilUser.InLibrary("n1") {
		t.Fatal("nil user data has no library")
	}
}
