// Package notify fans events out to live push connections.
//
// A Registry keeps, per recipient, the set of open Subscriptions. Each
// Subscription cleans itself out of the Registry when its connection
// completes or times out. A Dispatcher publishes an Event to every
// subscription of a recipient and drops the ones whose delivery fails.
// Nothing is stored for recipients that are offline.
package notify
