package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/imkonsowa/citiassist/models"
)

// locationPattern matches "(Current Location: 17.44, 78.34)": signed decimal
// degrees with an optional fractional part.
var locationPattern = regexp.MustCompile(`\(Current Location:\s*([+-]?\d+(?:\.\d+)?),\s*([+-]?\d+(?:\.\d+)?)\)`)

const locationContextMarker = "SYSTEM QUERY CONTEXT:"

// ExtractLocation returns the first coordinate token found in message.
func ExtractLocation(message string) (*models.LocationContext, bool) {
	match := locationPattern.FindStringSubmatch(message)
	if match == nil {
		return nil, false
	}

	return &models.LocationContext{
		Latitude:  match[1],
		Longitude: match[2],
	}, true
}

func locationPrefix(loc *models.LocationContext) string {
	return fmt.Sprintf(
		"%s The user is currently located at Latitude %s, Longitude %s. "+
			"You MUST provide results specifically near these coordinates. "+
			"Do not ask for location again. Assume this is the user's precise location.\n\n",
		locationContextMarker, loc.Latitude, loc.Longitude,
	)
}

// InjectLocationContext prepends a location block when message carries a
// coordinate token and returns message untouched otherwise. Text that
// already starts with the block for the same coordinates is returned as-is.
func InjectLocationContext(message string) (string, *models.LocationContext) {
	loc, ok := ExtractLocation(message)
	if !ok {
		return message, nil
	}

	prefix := locationPrefix(loc)
	if strings.HasPrefix(message, prefix) {
		return message, nil
	}

	return prefix + message, loc
}
