package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"
)

// RespondWithError sends a JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithJSON sends a JSON response with the given status code and payload.
// If the payload is nil, no body is sent.
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		// headers are already out; nothing useful to do with an encode error
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// truncateText shortens text to at most maxLength runes, avoiding word breaks
// and adding "..." when anything was cut.
func truncateText(input string, maxLength int) string {
	if input == "" || maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(input) <= maxLength {
		return input
	}

	actualLength := maxLength - 3
	if actualLength <= 0 {
		return "..."
	}

	text := string([]rune(input)[:actualLength])
	// only back up to a space when it keeps most of the text
	if lastSpace := strings.LastIndex(text, " "); lastSpace > len(text)/2 {
		text = text[:lastSpace]
	}
	return text + "..."
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
