// Package domain contains the core domain entities and value objects for syslogship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (sockets, HTTP, logging) and
// contains only the data that flows through the pipeline.
//
// # Entities
//
//   - [LogEvent]: A structured log event (severity, facility, message, fields)
//   - [Record]: A LogEvent paired with its single-invocation completion callback
//   - [Buffer]: A reusable byte region with single-owner checkout semantics
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
