package session

import (
	"github.com/google/uuid"
)

// Principal is the identity attached to an authenticated session. It is
// created from a successful login or registration result and mutated only
// through Manager.UpdateUser.
type Principal struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ProfileID string    `json:"profile_id,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
}

// PrincipalPatch carries a partial update for a principal. Nil fields are
// left untouched by Apply.
type PrincipalPatch struct {
	Email     *string
	ProfileID *string
	FirstName *string
	LastName  *string
}

// Apply merges the non-nil patch fields into the principal. Identity and
// role are deliberately not patchable.
func (p *Principal) Apply(patch PrincipalPatch) {
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.ProfileID != nil {
		p.ProfileID = *patch.ProfileID
	}
	if patch.FirstName != nil {
		p.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
}

// Credentials is a token store entry, namespaced by role so two principal
// kinds are never cross-read.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Role         Role   `json:"role"`
}

// Empty reports whether the entry carries no usable access token.
func (c Credentials) Empty() bool {
	return c.AccessToken == ""
}

// AuthResult is a successful login or registration exchange: the principal
// plus the tokens that corroborate it.
type AuthResult struct {
	User         Principal `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// Credentials returns the token store entry for this result.
func (r AuthResult) Credentials() Credentials {
	return Credentials{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Role:         r.User.Role,
	}
}

// RegistrationData is the profile payload submitted on registration. Company
// fields only apply to employer accounts.
type RegistrationData struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Phone       string `json:"phone_number,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// RegistrationOutcome is the result of a register call. Auth is nil when the
// account was created but the principal must verify their email before the
// backend hands out session tokens.
type RegistrationOutcome struct {
	Auth                 *AuthResult
	RequiresVerification bool
	Message              string
}
