package model

// SignInStatus is the identity provider's view of a sign-in attempt.
type SignInStatus string

const (
	SignInStatusComplete          SignInStatus = "complete"
	SignInStatusNeedsIdentifier   SignInStatus = "needs_identifier"
	SignInStatusNeedsFirstFactor  SignInStatus = "needs_first_factor"
	SignInStatusNeedsSecondFactor SignInStatus = "needs_second_factor"
	SignInStatusNeedsNewPassword  SignInStatus = "needs_new_password"
	SignInStatusNeedsClientTrust  SignInStatus = "needs_client_trust"
	SignInStatusAbandoned         SignInStatus = "abandoned"
)

// SignInAttempt is the result of submitting credentials to the identity provider.
// ClientToken identifies the provider-side client the attempt belongs to; later
// calls about the same session must present it.
type SignInAttempt struct {
	ID               string
	Status           SignInStatus
	CreatedSessionID string
	ClientToken      string
	UserID           string
	Email            string
	FirstName        string
	LastName         string
}

func (a *SignInAttempt) IsComplete() bool {
	return a != nil && a.Status == SignInStatusComplete && a.CreatedSessionID != ""
}

// Toast is a transient notification shown to the end user.
type Toast struct {
	Variant     string `json:"variant,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
