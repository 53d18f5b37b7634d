// redact — маскирование чувствительных значений в логах.
package redact

import "strings"

// Email оставляет первые два символа локальной части и домен:
// "someone@host.tld" -> "so***@host.tld". Строка без единственного '@'
// маскируется целиком.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local := parts[0]
	if len(local) <= 2 {
		return "***@" + parts[1]
	}

	return local[:2] + "***@" + parts[1]
}

// Литералы для значений, которые в лог не попадают ни в каком виде.

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
