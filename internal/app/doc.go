// Package app composes the client core into a running application.
//
// # Architecture Role
//
// The app package sits above the session store, the transport and the
// resource clients and wires them from a config.Config. It holds no
// business rules of its own.
//
//	internal/app/
//	└── application.go      # Application struct, storage selection, lifecycle
//
// # Dependency Direction
//
//	cmd/kaiactl/
//	      │
//	      ▼
//	internal/app/ (composition)
//	      │
//	      ├──► internal/service/    (resource clients)
//	      │           │
//	      │           └──► internal/httpclient/ ──► internal/session/
//	      │
//	      └──► internal/storage/    (memory, file, redis, postgres)
//
// # Lifecycle
//
// New opens the configured storage backend. Start restores the persisted
// session and reports whether a credential is present. Stop closes the
// backend when New opened it.
package app
