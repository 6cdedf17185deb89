package auth

import "strings"

// staffRoutes lists the API routes a kiosk token may not call. A key without a
// method applies to every method; "{}" matches one path segment.
var staffRoutes = []string{
	"DELETE /api/dates/{}/rooms/{}/sets/{}",
	"POST /api/dates/{}/rooms/{}/breakfast",
	"PUT /api/availability",
	"/api/dates/{}/report.pdf",
	"/api/dates/{}/report.xlsx",
	"/api/dates/{}/report/archive",
}

// StaffOnly reports whether the route is restricted to staff terminals.
func StaffOnly(method, path string) bool {
	method = strings.ToUpper(strings.TrimSpace(method))
	segments := splitPath(path)

	for _, key := range staffRoutes {
		keyPath := key
		if strings.Contains(key, " ") {
			parts := strings.SplitN(key, " ", 2)
			if method == "" || method != strings.ToUpper(strings.TrimSpace(parts[0])) {
				continue
			}
			keyPath = strings.TrimSpace(parts[1])
		}
		if matchSegments(splitPath(keyPath), segments) {
			return true
		}
	}
	return false
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if seg == "{}" {
			if path[i] == "" {
				return false
			}
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return true
}
