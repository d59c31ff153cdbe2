package service

// GoogleUser is the fixed shape of an externally verified Google principal.
// The OAuth callback validates the raw claims at the boundary and builds this
// struct before anything reaches the auth flows.
type GoogleUser struct {
	Email      string
	Name       string
	PictureURL string
	RawClaims  map[string]string
}
