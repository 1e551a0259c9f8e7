package grpcx

// RequestIDMetadataKey carries the HTTP X-Request-Id across gRPC hops.
// gRPC metadata keys are lowercase.
const RequestIDMetadataKey = "x-request-id"
