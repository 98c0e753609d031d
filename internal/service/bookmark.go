package service

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Blue-Finch-Software/linkkeeper-back/internal/apperr"
	"github.com/Blue-Finch-Software/linkkeeper-back/internal/db"
)

// BookmarkUpdate carries the optional fields of a partial edit. Nil means
// "leave untouched".
type BookmarkUpdate struct {
	Title       *string
	Link        *string
	Description *string
}

// Bookmark implements the owner-scoped CRUD. Every query is filtered by the
// caller's user ID; a row owned by someone else is indistinguishable from a
// missing one.
type Bookmark struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewBookmark(database *gorm.DB, l *zap.SugaredLogger) *Bookmark {
	return &Bookmark{
		db:     database,
		logger: l,
	}
}

func (s *Bookmark) List(ctx context.Context, ownerID uint64) ([]db.Bookmark, error) {
	sql, args, err := squirrel.
		Select("id", "created_at", "updated_at", "title", "link", "description", "user_id").
		From("bookmarks").
		Where(squirrel.Eq{"user_id": ownerID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	bookmarks := make([]db.Bookmark, 0)
	res := s.db.WithContext(ctx).Raw(sql, args...).Scan(&bookmarks)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}

	return bookmarks, nil
}

func (s *Bookmark) GetByID(ctx context.Context, ownerID, id uint64) (*db.Bookmark, error) {
	bookmark := db.Bookmark{}
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&bookmark)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bookmark not found")
		}
		return nil, errors.Wrap(res.Error, "find bookmark")
	}
	return &bookmark, nil
}

func (s *Bookmark) Create(ctx context.Context, ownerID uint64, title, link string, description *string) (*db.Bookmark, error) {
	model := db.Bookmark{
		Title:       title,
		Link:        link,
		Description: description,
		UserID:      ownerID,
	}

	res := s.db.WithContext(ctx).Create(&model)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "create bookmark")
	}

	return &model, nil
}

func (s *Bookmark) EditByID(ctx context.Context, ownerID, id uint64, upd BookmarkUpdate) (*db.Bookmark, error) {
	bookmark, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		bookmark.Title = *upd.Title
	}
	if upd.Link != nil {
		bookmark.Link = *upd.Link
	}
	if upd.Description != nil {
		bookmark.Description = upd.Description
	}

	res := s.db.WithContext(ctx).Save(bookmark)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "save bookmark")
	}

	return bookmark, nil
}

func (s *Bookmark) DeleteByID(ctx context.Context, ownerID, id uint64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&db.Bookmark{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete bookmark")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("bookmark not found")
	}
	return nil
}
