// Package app defines walk applications.
//
// An App supplies the transition functions, the initial walkers and the step
// function the engine runs for every pulled walker. SecondOrder is the
// generic second-order application; Node2Vec, Autoregressive and Uniform
// build its transition functions.
package app
