// Command redpipectl inspects and operates redis deployments through
// redpipe pipelines.
//
// Usage:
//
//	redpipectl --config redpipe.yaml ping
//	redpipectl struct show User 42 -o json
//	redpipectl scan User --match 'a*' --rate 500
//	redpipectl monitor --metrics-addr :9121
package main
