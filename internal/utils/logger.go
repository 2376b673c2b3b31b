package utils

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// LogEvent prints one line as [MODULE] action=... request_id=... msg=...
// Keep payloads out of msg; summarize instead.
func LogEvent(requestID, module, action, message string) {
	log.Print(FormatEvent(requestID, module, action, message, nil))
}

// LogFields is LogEvent with extra key=value pairs, printed in key order.
func LogFields(requestID, module, action string, fields map[string]any) {
	log.Print(FormatEvent(requestID, module, action, "", fields))
}

func FormatEvent(requestID, module, action, message string, fields map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] action=%s request_id=%s", strings.ToUpper(module), action, strings.TrimSpace(requestID))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	if message != "" {
		b.WriteString(" msg=" + message)
	}
	return b.String()
}
