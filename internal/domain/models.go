package domain

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&LocalCredential{},
		&OAuthAccount{},
		&Session{},
		&Conversation{},
		&Message{},
		&ModelResponse{},
		&UserVote{},
		&ModelRanking{},
		&APIKey{},
		&UserPreferences{},
	}
}
