package model

const (
	ItemTypeMaterial = "material"
	ItemTypePaper    = "paper"
)

type UserFavorite struct {
	BaseModel
	UserID   uint   `gorm:"uniqueIndex:idx_fav_user_item;type:bigint unsigned;not null" json:"userId"`
	ItemType string `gorm:"uniqueIndex:idx_fav_user_item;size:20;not null" json:"itemType"`
	ItemID   uint   `gorm:"uniqueIndex:idx_fav_user_item;type:bigint unsigned;not null" json:"itemId"`
}

func (UserFavorite) TableName() string {
	return "user_favorites"
}

type UserRating struct {
	BaseModel
	UserID   uint   `gorm:"uniqueIndex:idx_rating_user_item;type:bigint unsigned;not null" json:"userId"`
	ItemType string `gorm:"uniqueIndex:idx_rating_user_item;size:20;not null" json:"itemType"`
	ItemID   uint   `gorm:"uniqueIndex:idx_rating_user_item;type:bigint unsigned;not null" json:"itemId"`
	Rating   int    `gorm:"not null" json:"rating"` // 1-5
	Comment  string `gorm:"type:text" json:"comment"`
}

func (UserRating) TableName() string {
	return "user_ratings"
}

type DownloadLog struct {
	BaseModel
	UserID    uint   `gorm:"index;type:bigint unsigned" json:"userId"`
	ItemType  string `gorm:"size:20;not null" json:"itemType"`
	ItemID    uint   `gorm:"type:bigint unsigned;not null" json:"itemId"`
	IPAddress string `gorm:"size:45" json:"ipAddress"`
	UserAgent string `gorm:"size:255" json:"userAgent"`
}

func (DownloadLog) TableName() string {
	return "download_logs"
}
