// Package syslogship provides an embeddable syslog shipping agent.
//
// A Shipper accepts structured log events, renders each one with a layout,
// splits it into one or more syslog messages (RFC 5424 or RFC 3164) and
// sends them in order over TCP, TLS, UDP, HTTP or Redis. When the backlog
// grows past a configurable limit a throttling policy discards records,
// bounds their send time or delays the workers.
//
// # Basic Usage
//
//	cfg := syslogship.Config{
//	    AppName: "billing",
//	    Transport: syslogship.TransportConfig{
//	        Protocol: "tcp",
//	        Address:  "logs.example.com:6514",
//	        TLS:      true,
//	    },
//	    Throttling: syslogship.ThrottlingConfig{
//	        Limit:    5000,
//	        Strategy: "discard-on-percentage-timeout",
//	        Delay:    "2.5",
//	    },
//	}
//
//	s, err := syslogship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Stop()
//
//	s.Log(s.NewEvent(syslogship.SeverityWarning, "disk almost full"), nil)
//
// # Completion
//
// The completion passed to [Shipper.Log] is called exactly once with nil
// when every message of the event was sent, or with the root cause of the
// first failed transmission. It is never called for an event that was
// cancelled by shutdown or dropped by throttling; subscribe to
// [DiscardEvent] through an [EventHandler] to observe those.
//
// # Throttling
//
// See [ThrottlingConfig]. Delays are exact decimals and every computed delay
// or timeout is truncated to whole milliseconds. The policy can be replaced
// while running with [Shipper.SetThrottling]; the configwatcher plugin does
// so whenever the configuration file changes.
//
// # Lifecycle States
//
// A Shipper can be in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Use [Shipper.Status]
// to query the current state.
package syslogship
