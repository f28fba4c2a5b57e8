// Package events fans task status events out to live subscribers, such as
// the server-sent event stream of the admin API.
package events
