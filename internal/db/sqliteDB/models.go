package sqliteDB

type Account struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash *string
	Role         string
	Verified     bool
	Banned       bool
	CreatedAt    int64
	UpdatedAt    int64
}

type Session struct {
	ID        string
	AccountID string
	ExpiresAt int64
	Revoked   bool
	RevokedAt *int64
	IpAddress *string
	UserAgent *string
	CreatedAt int64
}
