// Package items implements the Item model accepted by the creation endpoint.
//
// Request bodies are checked against an embedded JSON schema before they are
// decoded, so every rejection names the offending field:
//   - ErrMalformed when the body is not a JSON document at all
//   - *ValidationError when the document does not satisfy the Item schema
package items
