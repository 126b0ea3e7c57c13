package model

// All 需要自动迁移的模型
func All() []any {
	return []any{
		&User{}, &ConsumerGroup{}, &SearchFilterEditor{}, &SearchFilterDataMarketplace{},
		&StoredQuery{}, &Message{}, &MessageConfig{}, &MessageTemplate{},
		&ColidEntrySubscription{}, &FavoritesList{}, &FavoritesListEntry{},
	}
}
