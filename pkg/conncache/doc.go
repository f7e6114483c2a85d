// Package conncache defines the public contract shared by the connection
// cache, the driver connectors and their callers: the Connection and
// Connector interfaces, connection options, sentinel errors and exit codes.
package conncache
