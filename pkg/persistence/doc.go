// Package persistence stores the node's network information across
// restarts.
//
// The saved state lets a node rejoin its previous parent instead of
// scanning again. It holds the node's own descriptor, the parent it was
// attached to and the outgoing MAC frame counter. The frame counter is
// written only once per save window so flash or disk is not touched for
// every frame; on restore the counter resumes one full window ahead so a
// value is never reused.
package persistence
