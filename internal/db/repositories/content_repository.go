package repositories

import (
	"context"

	"roboclub/clubhouse/internal/db"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/gorm"
)

// ContentRepository backs the public news, events and projects pages
type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(gdb *gorm.DB) *ContentRepository {
	return &ContentRepository{db: gdb}
}

func (r *ContentRepository) ListNews(ctx context.Context, limit int) ([]models.NewsPost, error) {
	var posts []models.NewsPost
	q := db.Conn(ctx, r.db).Order("published_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, storeErr("ContentRepository.ListNews", "failed to list news", err)
	}
	return posts, nil
}

func (r *ContentRepository) CreateNews(ctx context.Context, post *models.NewsPost) error {
	err := db.Conn(ctx, r.db).Create(post).Error
	return storeErr("ContentRepository.CreateNews", "failed to create news post", err)
}

func (r *ContentRepository) ListEvents(ctx context.Context, limit int) ([]models.Event, error) {
	var events []models.Event
	q := db.Conn(ctx, r.db).Order("starts_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, storeErr("ContentRepository.ListEvents", "failed to list events", err)
	}
	return events, nil
}

func (r *ContentRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	err := db.Conn(ctx, r.db).Create(event).Error
	return storeErr("ContentRepository.CreateEvent", "failed to create event", err)
}

func (r *ContentRepository) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := db.Conn(ctx, r.db).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, storeErr("ContentRepository.ListProjects", "failed to list projects", err)
	}
	return projects, nil
}

func (r *ContentRepository) CreateProject(ctx context.Context, project *models.Project) error {
	err := db.Conn(ctx, r.db).Create(project).Error
	return storeErr("ContentRepository.CreateProject", "failed to create project", err)
}

// Delete removes one content row; model selects the table.
func (r *ContentRepository) Delete(ctx context.Context, model interface{}, id string) error {
	res := db.Conn(ctx, r.db).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return storeErr("ContentRepository.Delete", "failed to delete content", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("ContentRepository.Delete", "content")
	}
	return nil
}
