package catalog

// Event types for the catalog request/reply exchange. Every message carries
// the correlation token in the envelope's correlation_id field; the reply
// consumer matches it back to a pending lookup.
const (
	EventTypeBookRequested = "catalog.book.requested"
	EventTypeBookResolved  = "catalog.book.resolved"
	EventTypeBookNotFound  = "catalog.book.notfound"
)

// AggregateTypeBook labels catalog exchange events.
const AggregateTypeBook = "book"

// BookRequestData is the payload of a catalog lookup request.
type BookRequestData struct {
	BookID string `json:"book_id"`
}

// BookReplyData is the payload of a resolved catalog reply. Price arrives as
// the catalog's raw string representation and is normalized by ParsePrice.
type BookReplyData struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
}

// BookNotFoundData is the payload of an explicit not-found reply.
type BookNotFoundData struct {
	BookID string `json:"book_id"`
}
