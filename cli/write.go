package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/binhbb2204/nocturne/pkg/models"
	"github.com/spf13/cobra"
)

var (
	novelTitle    string
	novelSynopsis string
	novelCover    int
	novelCategory string

	chapterTitle string
	chapterID    string
	chapterFile  string
	chapterPages []string
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Author novels and chapters",
	Long:  `Create novels through the new-novel wizard and publish chapters to them.`,
}

var writeNovelsCmd = &cobra.Command{
	Use:   "novels",
	Short: "List the novels you author",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		snap, err := openDashboard(cmd.Context(), client)
		if err != nil {
			return err
		}
		if len(snap.Novels) == 0 {
			fmt.Println("You have not written any novels yet.")
			fmt.Println("Run: nocturne write novel --title ...")
			return nil
		}
		for _, n := range snap.Novels {
			printNovelLine(n)
		}
		return nil
	},
}

var writeNovelCmd = &cobra.Command{
	Use:   "novel",
	Short: "Create a new novel",
	Long: `Create a draft novel. The cover is picked by number from
"nocturne write options"; the category must be one listed there too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(novelTitle) == "" {
			return fmt.Errorf("title is required (--title)")
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		opts, err := editorOptions(ctx, client)
		if err != nil {
			return err
		}
		if novelCover < 1 || novelCover > len(opts.Covers) {
			return fmt.Errorf("cover must be between 1 and %d", len(opts.Covers))
		}

		if _, err := openDashboard(ctx, client); err != nil {
			return err
		}
		steps := []struct {
			method, path string
			body         interface{}
		}{
			{"POST", "/wizard/start", nil},
			{"PUT", "/wizard/details", map[string]string{"title": novelTitle, "synopsis": novelSynopsis}},
			{"POST", "/wizard/next", nil},
			{"PUT", "/wizard/cover", map[string]string{"cover": opts.Covers[novelCover-1]}},
			{"POST", "/wizard/next", nil},
			{"PUT", "/wizard/category", map[string]string{"category": novelCategory}},
		}
		for _, st := range steps {
			if err := client.do(ctx, st.method, "/api/editor"+st.path, st.body, nil); err != nil {
				return fmt.Errorf("wizard %s: %w", st.path, err)
			}
		}
		var snap editorSnapshot
		if err := client.post(ctx, "/api/editor/wizard/finish", nil, &snap); err != nil {
			return fmt.Errorf("failed to create novel: %w", err)
		}
		if snap.Novel == nil {
			return fmt.Errorf("server did not return the new novel")
		}
		client.do(ctx, "DELETE", "/api/editor", nil, nil)

		printSuccess(fmt.Sprintf("Created %q", snap.Novel.Title))
		fmt.Printf("Novel ID: %s\n", snap.Novel.ID)
		fmt.Printf("Add a chapter: nocturne write chapter %s --title ... --file chapter.txt\n", snap.Novel.ID)
		return nil
	},
}

var writeChapterCmd = &cobra.Command{
	Use:   "chapter [novel-id]",
	Short: "Publish or overwrite a chapter",
	Long: `Write a chapter from --page flags or from a text file. In a file,
a line holding only "---" starts a new page. With --chapter the existing
chapter is overwritten; otherwise a new one is appended.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pages := chapterPages
		if chapterFile != "" {
			data, err := os.ReadFile(chapterFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", chapterFile, err)
			}
			pages = splitPages(string(data))
		}
		if len(pages) == 0 {
			return fmt.Errorf("no content: pass --page or --file")
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if _, err := openDashboard(ctx, client); err != nil {
			return err
		}
		defer client.do(ctx, "DELETE", "/api/editor", nil, nil)

		base := "/api/editor"
		if err := client.post(ctx, base+"/novels/"+url.PathEscape(args[0])+"/open", nil, nil); err != nil {
			return fmt.Errorf("failed to open novel: %w", err)
		}
		if chapterID != "" {
			err = client.post(ctx, base+"/chapters/"+url.PathEscape(chapterID)+"/select", nil, nil)
		} else {
			err = client.post(ctx, base+"/chapters/new", nil, nil)
		}
		if err != nil {
			return err
		}

		if chapterTitle != "" || chapterID == "" {
			if err := client.put(ctx, base+"/title", map[string]string{"title": chapterTitle}, nil); err != nil {
				return err
			}
		}
		if err := fillPages(ctx, client, pages); err != nil {
			return err
		}

		var saved struct {
			Chapter models.Chapter `json:"chapter"`
		}
		if err := client.post(ctx, base+"/save", nil, &saved); err != nil {
			var ae *apiError
			if errors.As(err, &ae) && ae.PartialSave {
				printError("Chapter saved but the chapter count was not updated; it will be repaired on the next reconcile")
				return nil
			}
			return fmt.Errorf("save failed: %w", err)
		}
		printSuccess(fmt.Sprintf("Saved chapter %d: %s (%d pages)", saved.Chapter.Order, saved.Chapter.Title, len(saved.Chapter.Pages)))
		return nil
	},
}

var writeOptionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List covers and categories for new novels",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		opts, err := editorOptions(cmd.Context(), client)
		if err != nil {
			return err
		}
		fmt.Println("Covers:")
		for i, c := range opts.Covers {
			fmt.Printf("  %d. %s\n", i+1, c)
		}
		fmt.Printf("\nCategories: %s\n", strings.Join(opts.Categories, ", "))
		return nil
	},
}

type editorSnapshot struct {
	Mode   string         `json:"mode"`
	Novels []models.Novel `json:"novels"`
	Novel  *models.Novel  `json:"novel"`
	Buffer *struct {
		Pages  []string `json:"pages"`
		Cursor int      `json:"cursor"`
	} `json:"buffer"`
}

type editorOpts struct {
	Covers     []string `json:"covers"`
	Categories []string `json:"categories"`
}

func editorOptions(ctx context.Context, client *apiClient) (*editorOpts, error) {
	var opts editorOpts
	if err := client.get(ctx, "/api/editor/options", &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// openDashboard starts from a fresh editor so a session left behind by an
// earlier run does not leak into this one.
func openDashboard(ctx context.Context, client *apiClient) (*editorSnapshot, error) {
	if err := client.do(ctx, "DELETE", "/api/editor", nil, nil); err != nil {
		return nil, err
	}
	var snap editorSnapshot
	if err := client.post(ctx, "/api/editor/dashboard", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// fillPages writes pages into the open buffer. The buffer starts with one
// page; later ones are appended before their text is set.
func fillPages(ctx context.Context, client *apiClient, pages []string) error {
	var snap editorSnapshot
	if err := client.get(ctx, "/api/editor", &snap); err != nil {
		return err
	}
	existing := 1
	if snap.Buffer != nil && len(snap.Buffer.Pages) > 0 {
		existing = len(snap.Buffer.Pages)
	}
	for i, text := range pages {
		if i < existing {
			if err := client.post(ctx, "/api/editor/pages/goto", map[string]int{"page": i}, nil); err != nil {
				return err
			}
		} else if err := client.post(ctx, "/api/editor/pages/add", nil, nil); err != nil {
			return err
		}
		if err := client.put(ctx, "/api/editor/pages/text", map[string]string{"text": text}, nil); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	// Trailing pages of an overwritten chapter are dropped.
	for n := existing; n > len(pages); n-- {
		if err := client.post(ctx, "/api/editor/pages/goto", map[string]int{"page": n - 1}, nil); err != nil {
			return err
		}
		if err := client.post(ctx, "/api/editor/pages/delete", nil, nil); err != nil {
			return err
		}
	}
	return nil
}

func splitPages(text string) []string {
	var pages []string
	var cur []string
	flush := func() {
		page := strings.TrimSpace(strings.Join(cur, "\n"))
		if page != "" {
			pages = append(pages, page)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "---" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return pages
}

func init() {
	writeNovelCmd.Flags().StringVar(&novelTitle, "title", "", "Novel title (required)")
	writeNovelCmd.Flags().StringVar(&novelSynopsis, "synopsis", "", "Short synopsis")
	writeNovelCmd.Flags().IntVar(&novelCover, "cover", 1, "Cover number from write options")
	writeNovelCmd.Flags().StringVar(&novelCategory, "category", "Fantasy", "Category")

	writeChapterCmd.Flags().StringVar(&chapterTitle, "title", "", "Chapter title")
	writeChapterCmd.Flags().StringVar(&chapterID, "chapter", "", "Existing chapter to overwrite")
	writeChapterCmd.Flags().StringVar(&chapterFile, "file", "", "Text file with pages separated by ---")
	writeChapterCmd.Flags().StringArrayVar(&chapterPages, "page", nil, "Page text (repeatable)")

	writeCmd.AddCommand(writeNovelsCmd)
	writeCmd.AddCommand(writeNovelCmd)
	writeCmd.AddCommand(writeChapterCmd)
	writeCmd.AddCommand(writeOptionsCmd)
}
