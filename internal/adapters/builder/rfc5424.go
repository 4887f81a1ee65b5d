package builder

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bft-labs/syslogship/internal/domain"
)

const (
	// sdID is the structured data element carrying LogEvent.Fields.
	sdID = "meta@32473"

	timestamp5424 = "2006-01-02T15:04:05.000000Z07:00"
	bom           = "\xEF\xBB\xBF"
)

// RFC5424 frames entries as
// <PRI>1 TIMESTAMP HOSTNAME APP-NAME PROCID MSGID STRUCTURED-DATA MSG.
type RFC5424 struct {
	base
}

// NewRFC5424 creates an RFC 5424 message builder.
func NewRFC5424(cfg Config) *RFC5424 {
	return &RFC5424{base: newBase(cfg)}
}

// PrepareMessage implements ports.MessageBuilder.
func (b *RFC5424) PrepareMessage(buf *domain.Buffer, event domain.LogEvent, entry string) error {
	buf.Reset()

	buf.WriteByte('<')
	buf.WriteString(strconv.Itoa(domain.Priority(event.Facility, event.Severity)))
	buf.WriteString(">1 ")
	buf.WriteString(b.timestamp(event).Format(timestamp5424))
	buf.WriteByte(' ')
	buf.WriteString(headerField(b.hostname(event), 255))
	buf.WriteByte(' ')
	buf.WriteString(headerField(b.appName(event), 48))
	buf.WriteByte(' ')
	buf.WriteString(headerField(event.ProcID, 128))
	buf.WriteByte(' ')
	buf.WriteString(headerField(event.MsgID, 32))
	buf.WriteByte(' ')
	writeStructuredData(buf, event.Fields)

	msg := truncate(entry, b.cfg.MaxLength)
	if msg == "" {
		return nil
	}
	buf.WriteByte(' ')
	if b.cfg.UseBOM {
		buf.WriteString(bom)
	}
	buf.WriteString(msg)
	return nil
}

func writeStructuredData(buf *domain.Buffer, fields map[string]string) {
	if len(fields) == 0 {
		buf.WriteString(nilValue)
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('[')
	buf.WriteString(sdID)
	for _, k := range keys {
		buf.WriteByte(' ')
		buf.WriteString(sdName(k))
		buf.WriteString(`="`)
		buf.WriteString(sdEscaper.Replace(fields[k]))
		buf.WriteByte('"')
	}
	buf.WriteByte(']')
}

var sdEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `]`, `\]`)

// sdName maps a field key to a valid SD-NAME (at most 32 printable
// characters, excluding '=', ' ', ']' and '"').
func sdName(k string) string {
	var sb strings.Builder
	for i := 0; i < len(k) && sb.Len() < 32; i++ {
		c := k[i]
		if c < 33 || c > 126 || c == '=' || c == ']' || c == '"' {
			c = '_'
		}
		sb.WriteByte(c)
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}
