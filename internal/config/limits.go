package config

const (
	// MaxNameLength is the maximum length for group, subgroup and file names.
	// Names are rendered inline in the sidebar, so anything longer is a mistake.
	MaxNameLength = 255

	// MaxLinkLength is the maximum length for a file link. Links are opaque,
	// but browsers and proxies start refusing URLs somewhere past 2K.
	MaxLinkLength = 2048

	// MaxPasswordLength bounds the login form. GoTrue itself caps bcrypt input at 72 bytes.
	MaxPasswordLength = 72
)
