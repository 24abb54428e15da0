package podcast

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repo is the Postgres-backed Store.
type Repo struct {
	DB *gorm.DB
}

var _ Store = (*Repo)(nil)

func (r *Repo) Create(ctx context.Context, p *Podcast) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *Repo) Get(ctx context.Context, id string) (*Podcast, error) {
	var p Podcast
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetForUser(ctx context.Context, id, userID string) (*Podcast, error) {
	var p Podcast
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Podcast, error) {
	var rows []Podcast
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) Update(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	return r.DB.WithContext(ctx).
		Model(&Podcast{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *Repo) AppendLog(ctx context.Context, id, line string) error {
	return r.DB.WithContext(ctx).Exec(
		`update podcasts set logs = array_append(logs, ?), updated_at = now() where id = ?`,
		line, id,
	).Error
}

func (r *Repo) Delete(ctx context.Context, id, userID string) error {
	return r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Podcast{}).Error
}
