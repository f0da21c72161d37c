package model

import "time"

// User represents an individual reporter profile.
//
// Email is unique and fixed once provisioned — subsequent sign-ins may
// refresh the username and profile image but never touch the email, because
// the email is the upsert key that lets a returning external identity find
// its existing row.
//
// Username is unique and mutable. At provisioning time it is derived from
// the provider display name (with collision suffixing); the onboarding flow
// lets the user change it later.
//
// Birthday, PhoneNumber and GitHubHandle are empty until the user completes
// onboarding.
type User struct {
	ID           string    `json:"id"           db:"id"`
	Email        string    `json:"email"        db:"email"`
	Username     string    `json:"username"     db:"username"`
	ProfileImage string    `json:"profileImage" db:"profile_image"`
	Birthday     string    `json:"birthday"     db:"birthday"`
	PhoneNumber  string    `json:"phoneNumber"  db:"phone_number"`
	GitHubHandle string    `json:"githubHandle" db:"github_handle"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}

// Organization represents a company profile. Same upsert pattern as User:
// email is the immutable key, the name may be refreshed on sign-in, and the
// website is filled in by the org onboarding flow.
type Organization struct {
	ID        string    `json:"id"        db:"id"`
	Email     string    `json:"email"     db:"email"`
	OrgName   string    `json:"orgName"   db:"org_name"`
	Website   string    `json:"website"   db:"website"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
