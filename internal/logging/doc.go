// Package logging builds the zap logger shared by the ahcconfig tool.
package logging
