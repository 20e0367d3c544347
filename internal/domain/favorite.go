package domain

import "time"

// Favorite is one (user, popup) membership. Only user identities own favorites.
type Favorite struct {
	UserID    string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	PopupID   uint64    `gorm:"column:popup_id;primaryKey;index" json:"popup_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}
