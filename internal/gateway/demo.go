package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/pkg/models"
)

// DemoPrefix marks ids that always resolve from the bundled dataset.
const DemoPrefix = "demo_"

func IsDemoID(id string) bool { return strings.HasPrefix(id, DemoPrefix) }

var demoEpoch = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func rating(v float64) *float64 { return &v }

var demoNovels = []models.Novel{
	{
		ID:          "demo_1",
		AuthorID:    "demo_author",
		AuthorName:  "The Silent Writer",
		Title:       "Star of Silence",
		Description: "In a world where sound is currency, a girl who owns nothing but silence uncovers a secret. A science-fiction thriller about what it means to be heard.",
		CoverURL:    "https://images.unsplash.com/photo-1519681393784-d120267933ba?q=80&w=800&auto=format&fit=crop",
		Tags:        []string{"SF", "Mystery"},
		Category:    "SF",
		IsPublished: true,
		Rating:      rating(4.8),
	},
	{
		ID:          "demo_2",
		AuthorID:    "demo_author",
		AuthorName:  "Marcus Vance",
		Title:       "Red Horizon",
		Description: "After the signal died, the silence was louder than any noise. A post-apocalyptic journey to take the quiet back.",
		CoverURL:    "https://images.unsplash.com/photo-1518709268805-4e9042af9f23?q=80&w=800&auto=format&fit=crop",
		Tags:        []string{"Fantasy", "Adventure"},
		Category:    "Fantasy",
		IsPublished: true,
		Rating:      rating(4.5),
	},
	{
		ID:          "demo_3",
		AuthorID:    "demo_author",
		AuthorName:  "Sarah Jenkins",
		Title:       "Void Code",
		Description: "A cyberpunk noir set in the back alleys of Neo Tokyo, 2084.",
		CoverURL:    "https://images.unsplash.com/photo-1555680202-c86f0e12f086?q=80&w=800&auto=format&fit=crop",
		Tags:        []string{"Cyberpunk", "Thriller"},
		Category:    "SF",
		IsPublished: true,
		Rating:      rating(4.9),
	},
	{
		ID:          "demo_4",
		AuthorID:    "demo_author",
		AuthorName:  "Anonymous",
		Title:       "Beneath the Ivy",
		Description: "Letters in glass bottles that drifted between the stars for a thousand years.",
		CoverURL:    "https://images.unsplash.com/photo-1451187580459-43490279c0fa?q=80&w=800&auto=format&fit=crop",
		Tags:        []string{"Romance", "SF"},
		Category:    "Romance",
		IsPublished: true,
		Rating:      rating(4.2),
	},
}

var demoChapters = map[string][]models.Chapter{
	"demo_1": {
		{
			ID:    "c1",
			Title: "The Blueprint",
			Pages: []string{
				"The city's glass spires broke through the smog layer like diamonds in ash. Kael adjusted his haptic gloves and felt the faint tremor of the interface under his fingertips.\n\n'Structural integrity at ninety-eight percent,' the AI whispered in his ear. It was a lie.",
				"Kael knew it, and so did the building. The foundation was weeping, bleeding geothermal pressure that had no business existing this high in the crust.\n\nHe pulled up the plans. Blue holographic lines glowed in the dark maintenance shaft. There it was again: a void in the data. A room that did not exist, held up by pillars that did not exist.",
			},
			Order: 1,
		},
		{
			ID:    "c2",
			Title: "Below the Surface",
			Pages: []string{
				"The elevator took ten minutes to descend. Ten minutes of absolute darkness, broken only by the blinking red LED of the emergency brake override.",
				"Kael had disabled the safety protocols. If he had to go down, he did not want a 'hazardous environment' warning to stop him halfway.\n\nHe already knew it was dangerous.\n\nThe doors hissed open and the air smelled of ozone and ancient dust.",
			},
			Order: 2,
		},
	},
	"demo_2": {
		{
			ID:    "c1",
			Title: "The Last Broadcast",
			Pages: []string{
				"The radio on the dashboard had been static for three years. Mara kept it on anyway.",
				"On the morning the static stopped, she pulled the truck over and listened to nothing at all.",
			},
			Order: 1,
		},
	},
	"demo_3": {
		{
			ID:    "c1",
			Title: "Ghost Protocol",
			Pages: []string{
				"Rain ran down the neon in sheets. Somewhere under Shinjuku a server was dreaming, and Ren had been hired to wake it.",
			},
			Order: 1,
		},
	},
	"demo_4": {
		{
			ID:    "c1",
			Title: "The First Letter",
			Pages: []string{
				"The bottle arrived on a Tuesday, which was strange, because nothing had arrived in the observatory for six hundred years.",
				"Inside was a single sheet of paper and a pressed ivy leaf, still green.",
			},
			Order: 1,
		},
	},
}

// DemoNovels returns a copy of the bundled dataset with chapter counts
// matching the bundled chapters.
func DemoNovels() []models.Novel {
	out := make([]models.Novel, 0, len(demoNovels))
	for i, n := range demoNovels {
		cp := cloneNovel(n)
		cp.CreatedAt = demoEpoch.Add(time.Duration(len(demoNovels)-i) * time.Hour)
		cp.UpdatedAt = cp.CreatedAt
		cp.ChapterCount = len(demoChapters[n.ID])
		out = append(out, cp)
	}
	return out
}

func DemoNovel(id string) (*models.Novel, bool) {
	for _, n := range DemoNovels() {
		if n.ID == id {
			return &n, true
		}
	}
	return nil, false
}

// DemoChapters returns the bundled chapters of novelID sorted by order.
func DemoChapters(novelID string) []models.Chapter {
	src := demoChapters[novelID]
	out := make([]models.Chapter, 0, len(src))
	for _, c := range src {
		cp := cloneChapter(c)
		cp.LastUpdated = demoEpoch
		out = append(out, cp)
	}
	models.SortChapters(out)
	return out
}

// DemoGateway serves the bundled dataset read-only. Writes are rejected
// with PERMISSION_DENIED.
type DemoGateway struct{}

func NewDemoGateway() *DemoGateway { return &DemoGateway{} }

func (DemoGateway) GetNovel(ctx context.Context, id string) (*models.Novel, error) {
	if n, ok := DemoNovel(id); ok {
		return n, nil
	}
	return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("novel %s not found", id))
}

func (DemoGateway) QueryNovels(ctx context.Context, filter NovelFilter) ([]models.Novel, error) {
	all := DemoNovels()
	out := make([]models.Novel, 0, len(all))
	for _, n := range all {
		if filter.AuthorID != "" && n.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, n)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (DemoGateway) ListChapters(ctx context.Context, novelID string) ([]models.Chapter, error) {
	if _, ok := DemoNovel(novelID); !ok {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("novel %s not found", novelID))
	}
	return DemoChapters(novelID), nil
}

func (DemoGateway) GetUserData(ctx context.Context, uid string) (*models.UserData, error) {
	return nil, apperr.New(apperr.CodeNotFound, "demo mode has no user documents")
}

var errDemoReadOnly = apperr.New(apperr.CodePermissionDenied, "demo content is read-only")

func (DemoGateway) CreateNovel(context.Context, *models.Novel) (string, error) {
	return "", errDemoReadOnly
}

func (DemoGateway) UpdateNovel(context.Context, string, NovelUpdate) error { return errDemoReadOnly }

func (DemoGateway) CreateChapter(context.Context, string, *models.Chapter) (string, error) {
	return "", errDemoReadOnly
}

func (DemoGateway) UpdateChapter(context.Context, string, string, ChapterUpdate) error {
	return errDemoReadOnly
}

func (DemoGateway) AddToLibrary(context.Context, string, string) error      { return errDemoReadOnly }
func (DemoGateway) RemoveFromLibrary(context.Context, string, string) error { return errDemoReadOnly }

// DemoSeeder is a store the bundled dataset can be copied into with its
// ids preserved.
type DemoSeeder interface {
	GetNovel(ctx context.Context, id string) (*models.Novel, error)
	PutDemoNovel(ctx context.Context, novel models.Novel, chapters []models.Chapter) error
}

// SeedDemo copies the bundled dataset into s, skipping novels that
// already exist. It returns the number of novels written.
func SeedDemo(ctx context.Context, s DemoSeeder) (int, error) {
	written := 0
	for _, n := range DemoNovels() {
		_, err := s.GetNovel(ctx, n.ID)
		if err == nil {
			continue
		}
		if apperr.CodeOf(err) != apperr.CodeNotFound {
			return written, err
		}
		if err := s.PutDemoNovel(ctx, n, DemoChapters(n.ID)); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
