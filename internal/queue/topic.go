package queue

import "strings"

const (
	BaseRoom = "laundry:queue"
	// AllTopic receives every queue change.
	AllTopic = BaseRoom + ":status:all"
)

var tokenEscaper = strings.NewReplacer("%", "%25", "+", "%2B")

// Topic maps a status set to its room name. The input is re-normalized, so
// any two set-equal inputs give the same topic.
func Topic(statuses []string) string {
	norm := NormalizeList(statuses)
	if len(norm) == 0 {
		return AllTopic
	}
	for i, s := range norm {
		norm[i] = tokenEscaper.Replace(s)
	}
	return BaseRoom + ":status:" + strings.Join(norm, "+")
}

// TopicFor derives the topic of a raw filter.
func TopicFor(f StatusFilter) string {
	return Topic(f.Normalize())
}
