package model

// Item is the domain model for a todo entry.
// IDs are assigned by the server; the client never invents one.
type Item struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// ListResponse is the envelope every todo endpoint answers with.
type ListResponse struct {
	Todos []Item `json:"todos"`
}

// CountRest returns how many items are still pending.
func CountRest(items []Item) int {
	n := 0
	for _, it := range items {
		if !it.Done {
			n++
		}
	}
	return n
}

// Stats splits the list into done and pending counts.
func Stats(items []Item) (done, pending int) {
	for _, it := range items {
		if it.Done {
			done++
		} else {
			pending++
		}
	}
	return
}
