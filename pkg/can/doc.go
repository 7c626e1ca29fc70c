// Package can holds the value types shared by the CAN controller, its
// transports and the service registry: interface types and identifiers, bus
// configurations, result codes and classical CAN frames.
package can
