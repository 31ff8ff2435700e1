package aiagent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emiago/sipgo/sip"
)

// ValidateSipURI checks that s is a sip:/sips: URI with a host.
func ValidateSipURI(s string) error {
	s = strings.TrimSpace(s)
	l := strings.ToLower(s)
	if !strings.HasPrefix(l, "sip:") && !strings.HasPrefix(l, "sips:") {
		return fmt.Errorf("aiagent: not a sip uri: %q", s)
	}
	var u sip.Uri
	if err := sip.ParseUri(s, &u); err != nil {
		return fmt.Errorf("aiagent: parse sip uri: %w", err)
	}
	if u.Host == "" {
		return errors.New("aiagent: sip uri has no host")
	}
	return nil
}
