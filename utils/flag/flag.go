/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer    = "api_server"
	DigestPusher = "digest_pusher"
)

var (
	IsDevelopment bool
	ByPassAuth    bool
	ServiceName   string
)

func init() {
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.BoolVar(&ByPassAuth, "no_auth", false, "set to true to skip token validation on the API server")
	flag.StringVar(&ServiceName, "service", APIServer, "'api_server' or 'digest_pusher'")
}

// ParseFlags must be called in main, after all packages had the chance to
// register their own flags.
func ParseFlags() {
	flag.Parse()
}
