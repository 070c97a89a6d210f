// Package protocol defines constants related to the scoreboard client-server
// protocol.
package protocol

const (
	// Version indicates an incompatible change to the listen API.  A client
	// that sends a different number gets an answer right away and should
	// reload itself.
	Version = 1

	// Header carries Version on every listen response.
	Header = "X-Puttleague-Protocol"
)
