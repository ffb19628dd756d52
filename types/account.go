package types

import "time"

// Account represents a student or staff member who can log in.
// It contains identity, role, profile and audit metadata.
type Account struct {
	// ID is the unique identifier of the account.
	ID int `json:"id" db:"id"`

	// Name is the display name shown on rosters.
	Name string `json:"name" db:"name"`

	// Login is the unique login name.
	Login string `json:"username" db:"login"`

	// PasswordHash stores the bcrypt digest of the password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsAdmin grants access to administrative operations.
	IsAdmin bool `json:"is_admin" db:"is_admin"`

	// IsActive is set once the account has logged in.
	IsActive bool `json:"is_active" db:"is_active"`

	// IsPasswordSet reports whether the owner has chosen their own password.
	// Admin-issued passwords leave it false.
	IsPasswordSet bool `json:"is_password_set" db:"is_password_set"`

	// LastLogin is the time of the most recent successful login.
	LastLogin *time.Time `json:"last_login" db:"last_login"`

	Phone      *string `json:"phone" db:"phone"`
	Email      *string `json:"email" db:"email"`
	Department *string `json:"department" db:"department"`
	ClassName  *string `json:"class_name" db:"class_name"`
	Gender     *string `json:"gender" db:"gender"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AccountProfile holds the optional contact and organization fields.
type AccountProfile struct {
	Phone      *string
	Email      *string
	Department *string
	ClassName  *string
	Gender     *string
}

// NewAccount is the input for creating an account.
type NewAccount struct {
	Name     string
	Login    string
	Password string
	IsAdmin  bool
	Profile  AccountProfile
}

// AccountPatch is a sparse update; nil and unset fields are left untouched.
// Profile fields set to null are cleared.
type AccountPatch struct {
	Name          *string
	Phone         Nullable[string]
	Email         Nullable[string]
	Department    Nullable[string]
	ClassName     Nullable[string]
	Gender        Nullable[string]
	IsAdmin       *bool
	IsPasswordSet *bool
}

// Apply copies the supplied fields onto acc.
func (p AccountPatch) Apply(acc *Account) {
	if p.Name != nil {
		acc.Name = *p.Name
	}
	p.Phone.assign(&acc.Phone)
	p.Email.assign(&acc.Email)
	p.Department.assign(&acc.Department)
	p.ClassName.assign(&acc.ClassName)
	p.Gender.assign(&acc.Gender)
	if p.IsAdmin != nil {
		acc.IsAdmin = *p.IsAdmin
	}
	if p.IsPasswordSet != nil {
		acc.IsPasswordSet = *p.IsPasswordSet
	}
}

// CascadeResult counts the rows removed along with an account.
type CascadeResult struct {
	WorkRecords int64 `json:"work_records"`
	Todos       int64 `json:"todos"`
	Schedules   int64 `json:"schedules"`
}
