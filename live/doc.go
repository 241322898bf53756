// Package live connects streaming clients to a notify.Hub topic.
//
// A Session registers on the topic, acknowledges the connection directly to
// its own transport and then forwards every published message until the
// client leaves, a write fails, the subscriber is evicted or the hub shuts
// down. Two transports are provided: WebSocket and Server-Sent Events.
package live
