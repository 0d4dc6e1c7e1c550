// Package grpc provides the gRPC health endpoint.
//
// The server registers the standard grpc.health.v1.Health service, so
// orchestrators can probe the site with grpc_health_probe. Reflection is
// enabled for grpcurl.
package grpc
