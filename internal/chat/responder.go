package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/compresr/flightdesk/internal/session"
)

// airportCode matches standalone three-letter uppercase codes such as JFK.
var airportCode = regexp.MustCompile(`\b[A-Z]{3}\b`)

// FlightResponder is a rule-based stand-in for the search agent. It picks up
// airport codes and asks for whatever is still missing.
type FlightResponder struct{}

// Respond implements Responder.
func (FlightResponder) Respond(ctx context.Context, sess *session.Session, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	codes := airportCode.FindAllString(message, 2)
	switch len(codes) {
	case 2:
		return fmt.Sprintf("Searching flights from %s to %s. Which dates work for you?", codes[0], codes[1]), nil
	case 1:
		return fmt.Sprintf("Got %s. Where would you like to fly to (or from)?", codes[0]), nil
	}

	if len(sess.Turns) > 0 {
		return "Thanks, noted. Tell me the origin and destination airports (for example JFK to LAX) and I will look for flights.", nil
	}
	if strings.Contains(strings.ToLower(message), "fly") {
		return "I can help you find a flight. Where are you flying from and to?", nil
	}
	return "Hi! I help search for flights. Tell me where you want to go and when.", nil
}
