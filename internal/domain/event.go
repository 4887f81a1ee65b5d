package domain

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the RFC 5424 severity of a log event (0 is the most severe).
type Severity int

const (
	SeverityEmergency Severity = iota
	SeverityAlert
	SeverityCritical
	SeverityError
	SeverityWarning
	SeverityNotice
	SeverityInformational
	SeverityDebug
)

var severityNames = [...]string{"emerg", "alert", "crit", "err", "warning", "notice", "info", "debug"}

// String returns the short syslog keyword for the severity.
func (s Severity) String() string {
	if s < SeverityEmergency || s > SeverityDebug {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity accepts the syslog keywords (and a few common aliases) or a
// numeric value in [0, 7].
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "emerg", "emergency", "panic":
		return SeverityEmergency, nil
	case "alert":
		return SeverityAlert, nil
	case "crit", "critical", "fatal":
		return SeverityCritical, nil
	case "err", "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "notice":
		return SeverityNotice, nil
	case "info", "informational":
		return SeverityInformational, nil
	case "debug", "trace":
		return SeverityDebug, nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n >= 0 && n <= 7 {
		return Severity(n), nil
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// Facility is the RFC 5424 facility code of a log event.
type Facility int

const (
	FacilityKern Facility = iota
	FacilityUser
	FacilityMail
	FacilityDaemon
	FacilityAuth
	FacilitySyslog
	FacilityLPR
	FacilityNews
	FacilityUUCP
	FacilityCron
	FacilityAuthPriv
	FacilityFTP
	FacilityNTP
	FacilityAudit
	FacilityAlert
	FacilityClock
	FacilityLocal0
	FacilityLocal1
	FacilityLocal2
	FacilityLocal3
	FacilityLocal4
	FacilityLocal5
	FacilityLocal6
	FacilityLocal7
)

var facilityNames = [...]string{
	"kern", "user", "mail", "daemon", "auth", "syslog", "lpr", "news",
	"uucp", "cron", "authpriv", "ftp", "ntp", "audit", "alert", "clock",
	"local0", "local1", "local2", "local3", "local4", "local5", "local6", "local7",
}

// String returns the syslog keyword for the facility.
func (f Facility) String() string {
	if f < FacilityKern || f > FacilityLocal7 {
		return fmt.Sprintf("facility(%d)", int(f))
	}
	return facilityNames[f]
}

// ParseFacility accepts a syslog facility keyword or a numeric value in [0, 23].
func ParseFacility(s string) (Facility, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range facilityNames {
		if key == name {
			return Facility(i), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(key, "%d", &n); err == nil && n >= 0 && n <= 23 {
		return Facility(n), nil
	}
	return 0, fmt.Errorf("unknown facility %q", s)
}

// Priority returns the PRI value (facility*8 + severity).
func Priority(f Facility, s Severity) int {
	return int(f)*8 + int(s)
}

// LogEvent is a single structured log event.
type LogEvent struct {
	// Timestamp is when the event occurred. A zero value is replaced by the
	// send time when the event is framed.
	Timestamp time.Time

	Severity Severity
	Facility Facility

	// Hostname, AppName, ProcID and MsgID map to the RFC 5424 header fields.
	// Empty values are rendered as the NILVALUE.
	Hostname string
	AppName  string
	ProcID   string
	MsgID    string

	// Message is the free-form text of the event.
	Message string

	// Fields carries structured key/value pairs.
	Fields map[string]string
}

// FormattedMessage returns a single-line human readable summary of the event.
func (e LogEvent) FormattedMessage() string {
	return fmt.Sprintf("[%s.%s] %s", e.Facility, e.Severity, e.Message)
}
