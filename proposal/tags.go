package proposal

// AppName identifies payloads written by this tool in store tags.
const AppName = "Cardano-Proposal-Anchoring"

// Tags returns the pass-through metadata attached to the stored payload.
// Stores may index or display them; the protocol never reads them back.
func (c *Content) Tags(appVersion string) map[string]string {
	title, ok := c.String("title")
	if !ok {
		title = "Unknown"
	}
	proposer, ok := c.String("proposer")
	if !ok {
		proposer = "Unknown"
	}
	return map[string]string{
		"Content-Type":      "application/json",
		"App-Name":          AppName,
		"App-Version":       appVersion,
		"Proposal-Title":    title,
		"Proposal-Proposer": proposer,
	}
}
