// Package notify provides an in-process publish/subscribe hub keyed by topic.
//
// Subscribers own a bounded queue. Publishing never blocks: a subscriber
// whose queue is full is evicted and its queue closed, so a reader either
// sees every message published while it was registered or sees its queue
// end.
//
//	hub := notify.NewHub()
//	sub, _ := hub.Subscribe("progress_group")
//	defer hub.Unsubscribe("progress_group", sub)
//	for data := range sub.Events() {
//		// write data to the transport
//	}
package notify
