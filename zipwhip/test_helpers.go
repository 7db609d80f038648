package zipwhip

import "github.com/stretchr/testify/mock"

// MatchAction creates a custom matcher for action arguments in mocks
func MatchAction(matcher func(Action) bool) interface{} {
	return mock.MatchedBy(matcher)
}
