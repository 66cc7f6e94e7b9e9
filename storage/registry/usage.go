package registry

// Usage restricts which programs should accept a given backend.
//
// Backends are linked at build time: a backend registers itself via init(),
// and is enabled in a binary by importing the backend package (often as a
// blank import).
type Usage uint8

const (
	// UsageCLI marks backends available to the proposal-anchor CLI.
	UsageCLI Usage = 1 << iota
	// UsageDaemon marks backends the anchor-casd daemon may serve.
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }

func (u Usage) String() string {
	switch u {
	case UsageCLI:
		return "cli"
	case UsageDaemon:
		return "daemon"
	case UsageCLI | UsageDaemon:
		return "cli,daemon"
	default:
		return "none"
	}
}
