// Package events defines the run events emitted on the event bus.
//
// A run publishes one RunEvent per status transition and one progress
// event per generation, or per optimizer phase when asked for. Subscribers include the metrics collector, the MQTT publisher and
// the websocket stream of the API.
package events
