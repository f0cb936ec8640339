package models

// Envelope is the uniform response shape every account operation returns:
// a status code, a human-readable message, and whatever payload the operation
// produced. Empty fields are left off the wire.
type Envelope struct {
	StatusCode     int    `json:"statusCode"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	Token          string `json:"token,omitempty"`
	RefreshToken   string `json:"refreshToken,omitempty"`
	ExpirationTime string `json:"expirationTime,omitempty"`
	User           *User  `json:"user,omitempty"`
	Users          []User `json:"users,omitempty"`
}
