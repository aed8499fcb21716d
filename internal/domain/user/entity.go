package user

// User represents a user entity in the system.
type User struct {
	ID       string // ID is the store-assigned identifier in hex form
	Name     string // Name is the display name of the user
	Email    string // Email is the unique email address of the user
	Age      int    // Age in years, never negative
	IsActive bool   // IsActive flags whether the account is enabled
}
