package ports

import "github.com/bft-labs/syslogship/internal/domain"

// Layout renders a log event into text.
type Layout interface {
	Render(event domain.LogEvent) (string, error)
}

// MessageBuilder turns log events into wire messages.
type MessageBuilder interface {
	// BuildLogEntries renders the event with the layout and splits the result
	// into the ordered entries that will each become one wire message.
	// Returning no entries is valid.
	BuildLogEntries(event domain.LogEvent, layout Layout) ([]string, error)

	// PrepareMessage overwrites buf with the framed wire form of one entry.
	PrepareMessage(buf *domain.Buffer, event domain.LogEvent, entry string) error
}
