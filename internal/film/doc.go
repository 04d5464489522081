// Package film describes the package under construction.
//
// Film carries the immutable build parameters (reel periods, rates, channel
// layout, stereoscopy, standard variant, metadata) that the writer, reel
// writers, and composition builder all consult. It replaces ambient global
// configuration: callers build one Film and pass it down explicitly.
package film
