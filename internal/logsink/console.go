package logsink

import (
	"fmt"
	"io"
	"strings"
)

const ansiReset = "\x1b[0m"

var tagColors = map[string]string{
	TagError:    "\x1b[31m",
	TagWarn:     "\x1b[33m",
	TagEmulator: "\x1b[36m",
	TagClient:   "\x1b[32m",
	TagServer:   "\x1b[34m",
	TagSys:      "\x1b[35m",
}

// Format renders a record the way the launcher console shows it:
// "[TAG] text". With color set, the tag is wrapped in an ANSI color.
func Format(rec Record, color bool) string {
	tag := "[" + strings.ToUpper(rec.Tag) + "]"
	if code, ok := tagColors[rec.Tag]; ok && color {
		tag = code + tag + ansiReset
	}
	return tag + " " + rec.Text
}

// Pump writes every record from sub to w until the subscription is closed.
func Pump(sub *Subscription, w io.Writer, color bool) {
	for rec := range sub.C() {
		fmt.Fprintln(w, Format(rec, color))
	}
}
