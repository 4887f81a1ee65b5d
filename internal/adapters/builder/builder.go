package builder

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bft-labs/syslogship/internal/domain"
	"github.com/bft-labs/syslogship/internal/ports"
)

// RFC selects the syslog message format.
type RFC string

const (
	RFC5424Format RFC = "5424"
	RFC3164Format RFC = "3164"
)

// nilValue is the RFC 5424 NILVALUE.
const nilValue = "-"

// Config holds settings shared by every message builder.
type Config struct {
	// SplitOnNewLine turns every non-empty line of the rendered event into
	// its own entry.
	SplitOnNewLine bool

	// MaxLength caps the message part of each entry, in bytes. Zero means
	// unlimited.
	MaxLength int

	// UseBOM prefixes RFC 5424 messages with the UTF-8 byte order mark.
	UseBOM bool

	// Hostname and AppName are used when the event leaves them empty.
	Hostname string
	AppName  string

	// Now supplies the timestamp for events without one. Defaults to time.Now.
	Now func() time.Time
}

// New returns the builder for rfc.
func New(rfc RFC, cfg Config) (ports.MessageBuilder, error) {
	switch rfc {
	case RFC5424Format, "":
		return NewRFC5424(cfg), nil
	case RFC3164Format:
		return NewRFC3164(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown syslog rfc %q", domain.ErrInvalidConfig, rfc)
	}
}

// base implements the entry splitting shared by both formats.
type base struct {
	cfg Config
}

func newBase(cfg Config) base {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return base{cfg: cfg}
}

// BuildLogEntries implements ports.MessageBuilder. A nil layout renders the
// event message unchanged.
func (b base) BuildLogEntries(event domain.LogEvent, layout ports.Layout) ([]string, error) {
	text := event.Message
	if layout != nil {
		rendered, err := layout.Render(event)
		if err != nil {
			return nil, err
		}
		text = rendered
	}
	if !b.cfg.SplitOnNewLine {
		return []string{text}, nil
	}
	return splitLines(text), nil
}

func (b base) timestamp(event domain.LogEvent) time.Time {
	if event.Timestamp.IsZero() {
		return b.cfg.Now()
	}
	return event.Timestamp
}

func (b base) hostname(event domain.LogEvent) string {
	if event.Hostname != "" {
		return event.Hostname
	}
	return b.cfg.Hostname
}

func (b base) appName(event domain.LogEvent) string {
	if event.AppName != "" {
		return event.AppName
	}
	return b.cfg.AppName
}

// splitLines splits on CRLF, LF and CR and drops empty lines.
func splitLines(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	i := max
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}

// headerField maps s to printable US-ASCII without spaces, capped at max
// bytes. Empty values become the NILVALUE.
func headerField(s string, max int) string {
	if s == "" {
		return nilValue
	}
	var sb strings.Builder
	for i := 0; i < len(s) && sb.Len() < max; i++ {
		c := s[i]
		if c < 33 || c > 126 {
			c = '_'
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
