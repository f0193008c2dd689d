package repository

import (
	"studyshare_backend/internal/model"

	"gorm.io/gorm"
)

type InteractionRepository struct {
	DB *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

func (r *InteractionRepository) FindFavorite(userID uint, itemType string, itemID uint) (*model.UserFavorite, error) {
	var fav model.UserFavorite
	err := r.DB.Where("user_id = ? AND item_type = ? AND item_id = ?", userID, itemType, itemID).
		First(&fav).Error
	return &fav, err
}

func (r *InteractionRepository) CreateFavorite(fav *model.UserFavorite) error {
	return r.DB.Create(fav).Error
}

func (r *InteractionRepository) DeleteFavorite(userID uint, itemType string, itemID uint) error {
	return r.DB.Unscoped().
		Where("user_id = ? AND item_type = ? AND item_id = ?", userID, itemType, itemID).
		Delete(&model.UserFavorite{}).Error
}

func (r *InteractionRepository) ListFavoritesByUser(userID uint, itemType string) ([]model.UserFavorite, error) {
	var favs []model.UserFavorite
	err := r.DB.Where("user_id = ? AND item_type = ?", userID, itemType).Find(&favs).Error
	return favs, err
}

func (r *InteractionRepository) UpsertRating(rating *model.UserRating) error {
	var existing model.UserRating
	err := r.DB.Where("user_id = ? AND item_type = ? AND item_id = ?",
		rating.UserID, rating.ItemType, rating.ItemID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(rating).Error
	}
	if err != nil {
		return err
	}
	existing.Rating = rating.Rating
	existing.Comment = rating.Comment
	return r.DB.Save(&existing).Error
}

// RatingSummary 平均分与评价数
type RatingSummary struct {
	Average float64 `gorm:"column:average" json:"average"`
	Count   int64   `gorm:"column:count" json:"count"`
}

func (r *InteractionRepository) SummarizeRatings(itemType string, itemID uint) (*RatingSummary, error) {
	var summary RatingSummary
	err := r.DB.Model(&model.UserRating{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		Scan(&summary).Error
	return &summary, err
}

func (r *InteractionRepository) CreateDownloadLog(log *model.DownloadLog) error {
	return r.DB.Create(log).Error
}
