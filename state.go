package auth

// AuthStatus is the outcome of a resolution.
type AuthStatus string

const (
	// StatusUnknown is used when credentials could not be read at all.
	StatusUnknown      AuthStatus = "unknown"
	StatusSignedIn     AuthStatus = "signed_in"
	StatusSignedOut    AuthStatus = "signed_out"
	StatusInterstitial AuthStatus = "interstitial"
)

// ParseAuthStatus maps a string to a known status.
func ParseAuthStatus(s string) (AuthStatus, bool) {
	switch AuthStatus(s) {
	case StatusSignedIn, StatusSignedOut, StatusInterstitial, StatusUnknown:
		return AuthStatus(s), true
	}
	return StatusUnknown, false
}

// Reason explains why a status was chosen. It is meant for logs and
// debugging headers, never for control flow outside this package.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonCredentialsUnavailable Reason = "credentials_unavailable"
	ReasonAuthorizationMalformed Reason = "authorization_malformed"
	ReasonCredentialsMissing     Reason = "credentials_missing"
	ReasonCrossOrigin            Reason = "cross_origin"
	ReasonProxyAmbiguous         Reason = "proxy_ambiguous"
	ReasonVerificationAmbiguous  Reason = "verification_ambiguous"
	ReasonVerificationTimeout    Reason = "verification_timeout"
	ReasonTokenExpired           Reason = "token_expired"
	ReasonTokenInvalid           Reason = "token_invalid"
	ReasonVerifierFailure        Reason = "verifier_failure"
	ReasonClaimsIncomplete       Reason = "claims_incomplete"
	ReasonCookieOutdated         Reason = "cookie_outdated"
	ReasonClientSignedOut        Reason = "client_signed_out"
	ReasonUnauthorizedParty      Reason = "unauthorized_party"
)

// AuthState is the closed result of a resolution. Claims, SessionID and
// SubjectID are only set when Status is StatusSignedIn.
type AuthState struct {
	Status    AuthStatus        `json:"status"`
	Reason    Reason            `json:"reason,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	SubjectID string            `json:"subject_id,omitempty"`
	Claims    map[string]string `json:"claims,omitempty"`
}

// IsSignedIn reports whether the state carries verified claims.
func (s AuthState) IsSignedIn() bool {
	return s.Status == StatusSignedIn
}

func signedInState(claims *SessionClaims) AuthState {
	return AuthState{
		Status:    StatusSignedIn,
		SessionID: claims.SessionID(),
		SubjectID: claims.SubjectID(),
		Claims:    claims.ClaimsMap(),
	}
}

func signedOutState(reason Reason) AuthState {
	return AuthState{Status: StatusSignedOut, Reason: reason}
}

func interstitialState(reason Reason) AuthState {
	return AuthState{Status: StatusInterstitial, Reason: reason}
}

func unknownState(reason Reason) AuthState {
	return AuthState{Status: StatusUnknown, Reason: reason}
}
