package observability

import "unicode"

const defaultStringLimit = 256

// sanitizeString strips control characters and bounds the length so request
// metadata cannot inject into log output.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = defaultStringLimit
	}

	cleaned := make([]rune, 0, len(value))
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		cleaned = append(cleaned, r)
	}
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return string(cleaned)
}

// SanitizeRoute bounds and cleans route patterns before logging.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, 180)
}

// SanitizeMethod cleans HTTP method names before logging.
func SanitizeMethod(method string) string {
	return sanitizeString(method, 10)
}
