// Package ensemble turns a sample matrix into ensemble members.
//
// Each member is one fully specified simulation: the parameter vector in schema order, the
// zero-padded run identifier and the command line that launches the simulator for it. Sampled
// slots are rescaled from the unit interval into their physical range; fixed slots take the
// schema's neutral value. Members are independent of each other, so they can be assembled in
// any order or concurrently.
package ensemble
