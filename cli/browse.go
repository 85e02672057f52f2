package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/binhbb2204/nocturne/pkg/models"
	"github.com/spf13/cobra"
)

var homeCategory string

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show the home feed",
	Long:  `Show the featured novel plus the trending and new rows, optionally filtered by category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		var feed struct {
			Category string         `json:"category"`
			Filters  []string       `json:"filters"`
			Hero     *models.Novel  `json:"hero"`
			Trending []models.Novel `json:"trending"`
			New      []models.Novel `json:"new"`
			DemoMode bool           `json:"demo_mode"`
		}
		path := "/api/home"
		if homeCategory != "" {
			path += "?category=" + url.QueryEscape(homeCategory)
		}
		if err := client.get(cmd.Context(), path, &feed); err != nil {
			return err
		}

		if feed.DemoMode {
			printInfo("Demo mode: the catalog is unavailable, showing sample novels")
		}
		fmt.Printf("Category: %s  (filters: %s)\n\n", feed.Category, strings.Join(feed.Filters, ", "))
		if feed.Hero == nil {
			fmt.Println("No novels yet.")
			return nil
		}
		fmt.Println("Featured")
		printNovelLine(*feed.Hero)
		printNovelRow("Trending", feed.Trending)
		printNovelRow("New", feed.New)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search novels",
	Long:  `Search by title, author name or tag. Matching ignores case.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		q := ""
		if len(args) == 1 {
			q = args[0]
		}
		var res struct {
			Novels   []models.Novel `json:"novels"`
			DemoMode bool           `json:"demo_mode"`
		}
		if err := client.get(cmd.Context(), "/api/search?q="+url.QueryEscape(q), &res); err != nil {
			return err
		}
		if res.DemoMode {
			printInfo("Demo mode: showing sample novels")
		}
		if len(res.Novels) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, n := range res.Novels {
			printNovelLine(n)
		}
		return nil
	},
}

var novelCmd = &cobra.Command{
	Use:   "novel [novel-id]",
	Short: "Show a novel and its chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		var d struct {
			Novel    models.Novel            `json:"novel"`
			Chapters []models.ChapterSummary `json:"chapters"`
			Saved    bool                    `json:"saved"`
			DemoMode bool                    `json:"demo_mode"`
		}
		if err := client.get(cmd.Context(), "/api/novels/"+url.PathEscape(args[0]), &d); err != nil {
			return err
		}

		n := d.Novel
		fmt.Printf("%s\nby %s\n", n.Title, n.AuthorName)
		if len(n.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(n.Tags, ", "))
		}
		if n.Description != "" {
			fmt.Printf("\n%s\n", n.Description)
		}
		if d.Saved {
			fmt.Println("\n★ In your library")
		}
		fmt.Printf("\nChapters (%d)\n", len(d.Chapters))
		for _, ch := range d.Chapters {
			fmt.Printf("  %3d. %-40s %s  (%d pages)\n", ch.Order, ch.Title, ch.ID, ch.PageCount)
		}
		return nil
	},
}

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List your saved novels",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		var res struct {
			Novels []models.Novel `json:"novels"`
			Count  int            `json:"count"`
		}
		if err := client.get(cmd.Context(), "/api/library", &res); err != nil {
			return err
		}
		if res.Count == 0 {
			fmt.Println("Your library is empty.")
			return nil
		}
		fmt.Printf("Library (%d)\n", res.Count)
		for _, n := range res.Novels {
			printNovelLine(n)
		}
		return nil
	},
}

var libraryToggleCmd = &cobra.Command{
	Use:   "toggle [novel-id]",
	Short: "Add or remove a novel from your library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		var res struct {
			Saved bool `json:"saved"`
		}
		if err := client.post(cmd.Context(), "/api/novels/"+url.PathEscape(args[0])+"/library", nil, &res); err != nil {
			return err
		}
		if res.Saved {
			printSuccess("Added to library")
		} else {
			printSuccess("Removed from library")
		}
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		var p struct {
			User struct {
				DisplayName string `json:"displayName"`
				Email       string `json:"email"`
			} `json:"user"`
			Tokens       int `json:"tokens"`
			LibraryCount int `json:"library_count"`
		}
		if err := client.get(cmd.Context(), "/api/profile", &p); err != nil {
			return err
		}
		fmt.Printf("%s <%s>\n", p.User.DisplayName, p.User.Email)
		fmt.Printf("Tokens:  %d\n", p.Tokens)
		fmt.Printf("Library: %d novels\n", p.LibraryCount)
		return nil
	},
}

func printNovelRow(title string, novels []models.Novel) {
	if len(novels) == 0 {
		return
	}
	fmt.Printf("\n%s\n", title)
	for _, n := range novels {
		printNovelLine(n)
	}
}

func printNovelLine(n models.Novel) {
	fmt.Printf("  %-12s %-32s %-20s %d ch\n", n.ID, n.Title, n.AuthorName, n.ChapterCount)
}

func init() {
	homeCmd.Flags().StringVar(&homeCategory, "category", "", "Category filter (All, Fantasy, Romance, SF, ...)")
	libraryCmd.AddCommand(libraryToggleCmd)
}
