// Package env exposes the process environment (local vs production).
package env

import "os"

type Environment string

const (
	Local      Environment = "local"
	Production Environment = "production"

	Key string = "ENV"
)

func (e Environment) Valid() bool {
	switch e {
	case Local, Production:
		return true
	}
	return false
}

// Current is resolved once at startup from the ENV variable and falls
// back to Local for anything unrecognized.
var Current Environment = Local

func init() {
	Current = Environment(os.Getenv(Key))
	if !Current.Valid() {
		Current = Local
	}
}

func IsProduction() bool { return Current == Production }
