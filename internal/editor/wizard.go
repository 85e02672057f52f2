package editor

import (
	"strings"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/pkg/models"
)

// Covers are the preset cover images offered in the wizard.
var Covers = []string{
	"https://images.unsplash.com/photo-1519681393784-d120267933ba?q=80&w=600&auto=format&fit=crop",
	"https://images.unsplash.com/photo-1518709268805-4e9042af9f23?q=80&w=600&auto=format&fit=crop",
	"https://images.unsplash.com/photo-1555680202-c86f0e12f086?q=80&w=600&auto=format&fit=crop",
	"https://images.unsplash.com/photo-1451187580459-43490279c0fa?q=80&w=600&auto=format&fit=crop",
}

var Categories = []string{
	"Fantasy", "Romance", "Martial Arts", "SF", "Mystery", "Horror", "Light Novel", "Drama",
}

// DefaultAuthorName is used when the author has no display name.
const DefaultAuthorName = "Author"

type WizardStep int

const (
	StepDetails WizardStep = iota + 1
	StepCover
	StepCategory
)

// Wizard is the three-step new-novel flow. Steps advance in order and
// each is gated on its own field.
type Wizard struct {
	Step     WizardStep `json:"step"`
	Title    string     `json:"title"`
	Synopsis string     `json:"synopsis"`
	Cover    string     `json:"cover"`
	Category string     `json:"category"`
}

func NewWizard() *Wizard {
	return &Wizard{Step: StepDetails}
}

func (w *Wizard) SetDetails(title, synopsis string) {
	w.Title = title
	w.Synopsis = synopsis
}

func (w *Wizard) SelectCover(cover string) error {
	if !contains(Covers, cover) {
		return apperr.New(apperr.CodeValidation, "unknown cover")
	}
	w.Cover = cover
	return nil
}

func (w *Wizard) SelectCategory(category string) error {
	if !contains(Categories, category) {
		return apperr.New(apperr.CodeValidation, "unknown category")
	}
	w.Category = category
	return nil
}

func (w *Wizard) Next() error {
	switch w.Step {
	case StepDetails:
		if strings.TrimSpace(w.Title) == "" {
			return apperr.New(apperr.CodeValidation, "title is required")
		}
	case StepCover:
		if w.Cover == "" {
			return apperr.New(apperr.CodeValidation, "select a cover")
		}
	default:
		return apperr.New(apperr.CodeInvalidTransition, "last step; finish the wizard instead")
	}
	w.Step++
	return nil
}

func (w *Wizard) Back() error {
	if w.Step == StepDetails {
		return apperr.New(apperr.CodeInvalidTransition, "already on the first step")
	}
	w.Step--
	return nil
}

// Ready reports whether the wizard can be completed. Earlier steps are
// checked again since their fields stay editable.
func (w *Wizard) Ready() error {
	if w.Step != StepCategory {
		return apperr.New(apperr.CodeInvalidTransition, "wizard is not on its last step")
	}
	if strings.TrimSpace(w.Title) == "" {
		return apperr.New(apperr.CodeValidation, "title is required")
	}
	if w.Cover == "" {
		return apperr.New(apperr.CodeValidation, "select a cover")
	}
	if w.Category == "" {
		return apperr.New(apperr.CodeValidation, "select a category")
	}
	return nil
}

// Draft builds the unpublished novel record the wizard creates.
func (w *Wizard) Draft(authorID, authorName string) models.Novel {
	if strings.TrimSpace(authorName) == "" {
		authorName = DefaultAuthorName
	}
	return models.Novel{
		AuthorID:     authorID,
		AuthorName:   authorName,
		Title:        strings.TrimSpace(w.Title),
		Description:  w.Synopsis,
		CoverURL:     w.Cover,
		Tags:         []string{w.Category},
		Category:     w.Category,
		IsPublished:  false,
		ChapterCount: 0,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
