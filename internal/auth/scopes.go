package auth

import "fmt"

// Known OAuth scopes for the health API.
const (
	ScopeHealthRead  = "health:read"
	ScopeHealthWrite = "health:write"
)

// ConsentScope is the scope through which a token pre-approves access to one data type in
// one direction, e.g. "health:steps:read".
func ConsentScope(dataType, direction string) string {
	return fmt.Sprintf("health:%s:%s", dataType, direction)
}
