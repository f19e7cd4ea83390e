package services

import (
	"context"
	"strings"
	"time"

	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db/repositories"
	models "roboclub/clubhouse/internal/models/gorm"
	"roboclub/clubhouse/internal/policy"
	"roboclub/clubhouse/internal/roles"

	"golang.org/x/sync/errgroup"
)

// TeamMember is one person on the team page. Email is empty unless the
// viewer may see it.
type TeamMember struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Email    string           `json:"email,omitempty"`
	Major    string           `json:"major,omitempty"`
	Bio      string           `json:"bio,omitempty"`
	ImageURL string           `json:"image_url,omitempty"`
	Roles    []constants.Role `json:"roles"`
}

// HomePage bundles what the landing page needs.
type HomePage struct {
	Settings map[string]string `json:"settings"`
	News     []models.NewsPost `json:"news"`
	Events   []models.Event    `json:"events"`
}

const homeListLimit = 3

type ContentService struct {
	team     *repositories.TeamRepository
	content  *repositories.ContentRepository
	settings *SettingsService
	now      func() time.Time
}

func NewContentService(team *repositories.TeamRepository, content *repositories.ContentRepository, settings *SettingsService) *ContentService {
	return &ContentService{team: team, content: content, settings: settings, now: time.Now}
}

// Team returns approved members grouped by primary role in precedence
// order.
func (s *ContentService) Team(ctx context.Context, viewer policy.Viewer) ([]roles.Section[TeamMember], error) {
	rows, err := s.team.Roster(ctx)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	var members []TeamMember
	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			i = len(members)
			index[row.ID] = i
			m := TeamMember{ID: row.ID, Name: row.Name, Major: row.Major, Bio: row.Bio, ImageURL: row.ImageURL}
			if policy.CanViewProfileEmail(viewer, row.ID) {
				m.Email = row.Email
			}
			members = append(members, m)
		}
		members[i].Roles = append(members[i].Roles, row.Role)
	}

	return roles.GroupByPrimaryRole(members, func(m TeamMember) []constants.Role { return m.Roles }), nil
}

func (s *ContentService) Home(ctx context.Context) (*HomePage, error) {
	out := &HomePage{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Settings, err = s.settings.All(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.News, err = s.content.ListNews(gctx, homeListLimit)
		return err
	})
	g.Go(func() (err error) {
		out.Events, err = s.content.ListEvents(gctx, homeListLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ContentService) News(ctx context.Context) ([]models.NewsPost, error) {
	return s.content.ListNews(ctx, 0)
}

func (s *ContentService) CreateNews(ctx context.Context, title, body string, publishedAt *time.Time) (*models.NewsPost, error) {
	published := s.now().UTC()
	if publishedAt != nil {
		published = publishedAt.UTC()
	}
	post := &models.NewsPost{Title: strings.TrimSpace(title), Body: body, PublishedAt: published}
	if err := s.content.CreateNews(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ContentService) DeleteNews(ctx context.Context, id string) error {
	return s.content.Delete(ctx, &models.NewsPost{}, id)
}

func (s *ContentService) Events(ctx context.Context) ([]models.Event, error) {
	return s.content.ListEvents(ctx, 0)
}

func (s *ContentService) CreateEvent(ctx context.Context, title string, description, location *string, startsAt time.Time) (*models.Event, error) {
	event := &models.Event{Title: strings.TrimSpace(title), Description: description, Location: location, StartsAt: startsAt.UTC()}
	if err := s.content.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *ContentService) DeleteEvent(ctx context.Context, id string) error {
	return s.content.Delete(ctx, &models.Event{}, id)
}

func (s *ContentService) Projects(ctx context.Context) ([]models.Project, error) {
	return s.content.ListProjects(ctx)
}

func (s *ContentService) CreateProject(ctx context.Context, name string, description, imageURL, repoURL *string) (*models.Project, error) {
	project := &models.Project{Name: strings.TrimSpace(name), Description: description, ImageURL: imageURL, RepoURL: repoURL}
	if err := s.content.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ContentService) DeleteProject(ctx context.Context, id string) error {
	return s.content.Delete(ctx, &models.Project{}, id)
}
