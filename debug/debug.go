package debug

import (
	"fmt"
	"os"
	"strconv"
)

type debug struct {
	Cache   bool
	Suspend bool
	Replay  bool
	Types   bool
}

var d *debug

func init() {
	d = &debug{}
	d.Cache = boolEnv("RJSON_DEBUG_CACHE")
	d.Suspend = boolEnv("RJSON_DEBUG_SUSPEND")
	d.Replay = boolEnv("RJSON_DEBUG_REPLAY")
	d.Types = boolEnv("RJSON_DEBUG_TYPES")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Cache() bool {
	return d.Cache
}
func Suspend() bool {
	return d.Suspend
}
func Replay() bool {
	return d.Replay
}
func Types() bool {
	return d.Types
}

func Logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
