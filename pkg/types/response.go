package types

// MessageEnvelope is the stable wire shape every mutation endpoint
// replies with: {"message": "..."}.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// ResultEnvelope carries a message plus a result payload, matching the
// filtered-books and borrow-book read responses.
type ResultEnvelope struct {
	Message string `json:"message"`
	Result  any    `json:"result"`
}

// CountEnvelope is the books-count response shape.
type CountEnvelope struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}
