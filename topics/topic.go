// Package topics composes namespaced names for queues and streams so every
// component derives keys the same way.
package topics

type Topic struct {
	prefix string
	name   string
}

func New(prefix, name string) Topic {
	return Topic{
		prefix: prefix,
		name:   name,
	}
}

func (t Topic) Name() string {
	if t.prefix == "" {
		return t.name
	}
	return t.prefix + "." + t.name
}

// MeetingProcessing is the queue fed by the upload path and drained by the
// background worker pool.
var MeetingProcessing = New("meetings", "process")
