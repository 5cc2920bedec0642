// Package control exposes the alarm lifecycle over gRPC.
//
// The service sunrise_alarm.v1.AlarmControl is registered with a hand-written
// grpc.ServiceDesc whose messages are protobuf well-known types: identifiers
// travel as wrapperspb.Int64Value, compound requests and replies as
// structpb.Struct and empty replies as emptypb.Empty. The package also holds
// the encoders shared by the server and the client, and the actor metadata
// attached to every call for the audit log.
package control
