package chat

import (
	"sort"

	"github.com/scylladb/go-set/strset"
)

// DisplayOrder returns the messages sorted by creation time, oldest first. Messages created at the
// same instant keep their arrival order. The input is not modified.
func DisplayOrder(messages []*Message) []*Message {
	ordered := make([]*Message, len(messages))
	copy(ordered, messages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	return ordered
}

// NewSince returns the messages of `next` whose ids are not in `prev`, in `next` order.
func NewSince(prev, next []*Message) []*Message {
	seen := strset.NewWithSize(len(prev))
	for _, message := range prev {
		seen.Add(message.ID)
	}
	var fresh []*Message
	for _, message := range next {
		if !seen.Has(message.ID) {
			fresh = append(fresh, message)
		}
	}
	return fresh
}
