// Package notifier delivers reminder text to chat channels.
//
// A channel id is a chat target rendered as "<chat>" or "<chat>:<thread>".
// Every send waits on a shared token bucket and is bounded by a send timeout.
// Each Deliver call is a single attempt. The service keeps a short in-memory
// history of sends for operator visibility.
package notifier
