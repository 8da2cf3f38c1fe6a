// Package pipeline runs a graph of stages connected by channels.
//
// A pipeline starts from a root step producing values, transforms them in one-to-one steps
// (optionally with several goroutines per step), can copy every value to several branches with
// a splitter, and ends in sinks. Every stage runs in its own goroutine as soon as it is added;
// Run waits for all of them.
//
// The first error returned by any stage cancels the pipeline context, so the remaining stages
// stop, and Run returns that error prefixed with the stage name. Options (see the model
// package) observe the stages as they are added and as values flow through them.
package pipeline
