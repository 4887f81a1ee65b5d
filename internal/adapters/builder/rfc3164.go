package builder

import (
	"strconv"

	"github.com/bft-labs/syslogship/internal/domain"
)

const timestamp3164 = "Jan _2 15:04:05"

// RFC3164 frames entries in the BSD format <PRI>Mmm dd hh:mm:ss HOST TAG: MSG.
type RFC3164 struct {
	base
}

// NewRFC3164 creates an RFC 3164 message builder.
func NewRFC3164(cfg Config) *RFC3164 {
	return &RFC3164{base: newBase(cfg)}
}

// PrepareMessage implements ports.MessageBuilder.
func (b *RFC3164) PrepareMessage(buf *domain.Buffer, event domain.LogEvent, entry string) error {
	buf.Reset()

	buf.WriteByte('<')
	buf.WriteString(strconv.Itoa(domain.Priority(event.Facility, event.Severity)))
	buf.WriteByte('>')
	buf.WriteString(b.timestamp(event).Format(timestamp3164))
	buf.WriteByte(' ')
	buf.WriteString(headerField(b.hostname(event), 255))
	buf.WriteByte(' ')
	if tag := b.tag(event); tag != "" {
		buf.WriteString(tag)
		buf.WriteString(": ")
	}
	buf.WriteString(truncate(entry, b.cfg.MaxLength))
	return nil
}

// tag is APP-NAME[PROCID], or empty when the event has no app name.
func (b *RFC3164) tag(event domain.LogEvent) string {
	app := b.appName(event)
	if app == "" {
		return ""
	}
	tag := headerField(app, 32)
	if event.ProcID != "" {
		tag += "[" + headerField(event.ProcID, 128) + "]"
	}
	return tag
}
