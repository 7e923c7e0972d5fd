package settings

// Provider yields the current settings. Implementations must be safe for
// concurrent use.
type Provider interface {
	Settings() Settings
}

// Static is a fixed Provider, used by tests and one-shot commands.
type Static Settings

// Settings returns s unchanged.
func (s Static) Settings() Settings {
	return Settings(s)
}
