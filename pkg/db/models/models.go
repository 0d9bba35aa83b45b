package models

// All lists every persisted model in dependency order. Used by the SQLite
// auto-migration path and by tests.
func All() []any {
	return []any{
		&Wine{},
		&Cart{},
		&CartItem{},
		&Order{},
		&Favorite{},
		&Review{},
	}
}
