// Package mqtt publishes smart home device commands to an MQTT broker.
//
// A [Commander] keeps one autopaho connection open for the process
// lifetime. It announces itself on an availability topic ("online" on
// every connect, "offline" as the will message and on graceful stop)
// and publishes each spoken device command verbatim to the configured
// command topic.
package mqtt
