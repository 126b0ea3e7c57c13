package model

// FavoritesList 收藏夹
type FavoritesList struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Name   string `json:"name" gorm:"type:varchar(255);not null"`
	Auditable
}

func (FavoritesList) TableName() string { return "favorites_lists" }

// FavoritesListEntry 收藏夹条目，同一收藏夹内 pid_uri 唯一
type FavoritesListEntry struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	FavoritesListID uint   `json:"favorites_list_id" gorm:"not null;index:idx_favorites_entry_pair,unique"`
	PidURI          string `json:"pid_uri" gorm:"type:varchar(2048);not null;index:idx_favorites_entry_pair,unique"`
	PersonalNote    string `json:"personal_note" gorm:"type:text"`
	Auditable
}

func (FavoritesListEntry) TableName() string { return "favorites_list_entries" }

// FavoritesListWithEntries 收藏夹及其条目
type FavoritesListWithEntries struct {
	FavoritesList
	Entries []FavoritesListEntry `json:"entries"`
}
