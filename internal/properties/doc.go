// Package properties reads line-oriented key=value resources. A resource that
// does not exist loads as an empty map; a resource that cannot be read or
// contains a malformed line aborts the load.
package properties
