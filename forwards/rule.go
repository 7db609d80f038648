package forwards

import "fmt"

/* Rule represents a relay configuration for one receiving line
 * Maps the webhook's finalDestination to the number the message body
 * should be forwarded to
 */
type Rule struct {
	Line   string
	Target string
}

// Validate checks if the rule configuration is valid
func (r *Rule) Validate() error {
	if r.Line == "" {
		return fmt.Errorf("line cannot be empty")
	}
	if r.Target == "" {
		return fmt.Errorf("target cannot be empty for line %s", r.Line)
	}
	return nil
}
