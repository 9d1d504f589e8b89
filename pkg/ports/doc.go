/*
Package ports defines the driven ports (interfaces) of the survey flow engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends, survey sources and transports.

# Key Interfaces

  - SurveyLoader: Loads survey documents (e.g., from Loam or Memory).
  - StateStore: Persists and loads attempt state.
  - ResponseStore: Persists finished attempts and tracks response counts.
  - ResultPublisher: Announces stored responses (e.g., to RabbitMQ).
  - DistributedLocker: Provides distributed locking for concurrent attempt access.
  - FlowEngine: The stateless engine consumed by transports.
*/
package ports
