// Package config loads the envdash configuration.
//
// Configuration is layered; later layers override earlier ones field by
// field:
//
//  1. Built-in defaults (GetDefaultConfig)
//  2. User configuration: ~/.config/envdash/config.yaml
//  3. Project configuration: ./.envdash/config.yaml
//  4. Environment variables: ENVDASH_<SECTION>_<FIELD>, for example
//     ENVDASH_BACKEND_ENDPOINT or ENVDASH_CONNECTION_PINGINTERVAL
//
// Example configuration:
//
//	backend:
//	  endpoint: http://localhost:8090/mcp
//	  transport: streamable-http
//	  requestTimeout: 30s
//	connection:
//	  pingInterval: 10s
//	  backoff:
//	    initial: 500ms
//	    max: 30s
//	    factor: 2
//	    jitter: 0.2
//	theme:
//	  preferenceFile: ~/.config/envdash/appearance
//	  pollInterval: 5s
//	logging:
//	  level: info
//
// The loaded configuration is validated before it is returned.
package config
