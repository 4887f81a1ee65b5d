// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Layout]: Renders a log event into text
//   - [MessageBuilder]: Splits rendered text into entries and frames one entry into a buffer
//   - [Transmitter]: Sends one framed message over the transport
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app, internal/msgset) depends only on these
// interfaces. Infrastructure adapters (internal/adapters) implement them with
// concrete syslog formats and network transports.
package ports
