// Package macsim is an in-process MAC sublayer with simulated
// coordinators.
//
// Sim implements mac.Service. Requests are answered by the coordinators
// it was configured with: classic coordinators answer scans with beacons
// and accept associations, frequency-hopping coordinators answer PAN
// advertisement and configuration solicits. Answers are queued and
// delivered to the registered mac.EventSink either by Run, after the
// configured response delay, or synchronously by Flush.
package macsim
