package items

import "encoding/json"

// Item is a record submitted by a client. It lives for the duration of a
// single request and is echoed back once accepted. Price holds the number
// literal as it was sent, so the echo neither rounds nor overflows.
type Item struct {
	Name        string      `json:"name"`
	Price       json.Number `json:"price"`
	Description *string     `json:"description,omitempty"`
}
