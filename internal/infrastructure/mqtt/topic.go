package mqtt

import (
	"fmt"
	"strings"
)

// validateTopicName checks a topic used for publishing. Names are concrete
// destinations, so wildcards are not allowed.
func validateTopicName(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidTopic)
	}
	if strings.ContainsAny(topic, "+#\x00") {
		return fmt.Errorf("%w: %q contains a wildcard or NUL", ErrInvalidTopic, topic)
	}
	return nil
}

// validateTopicFilter checks a subscription filter. "+" must fill a whole
// level and "#" must be the whole last level.
func validateTopicFilter(filter string) error {
	if filter == "" {
		return fmt.Errorf("%w: empty filter", ErrInvalidTopic)
	}
	if strings.ContainsRune(filter, '\x00') {
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidTopic, filter)
	}
	levels := strings.Split(filter, "/")
	for i, level := range levels {
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return fmt.Errorf("%w: %q: # must be the last level on its own", ErrInvalidTopic, filter)
		}
		if strings.Contains(level, "+") && level != "+" {
			return fmt.Errorf("%w: %q: + must fill a whole level", ErrInvalidTopic, filter)
		}
	}
	return nil
}
