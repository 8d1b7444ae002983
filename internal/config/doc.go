// Package config defines the redpipectl configuration structure.
//
// A configuration names one or more redis connections; each becomes a
// connection bound in a redpipe.Registry under the same name.
//
//	connections:
//	  default:
//	    url: redis://localhost:6379/0
//	  cache:
//	    addrs: [10.0.0.1:7000, 10.0.0.2:7000]
//	    cluster: true
//	log:
//	  level: info
//	  backend: zap
package config
