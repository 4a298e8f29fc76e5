// Command videogen runs the video generator server and offers operator
// tooling around it: preflight checks, configuration management and an
// offline caption composer for saved word timings.
package main
