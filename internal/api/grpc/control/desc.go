package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sunrise_alarm.v1.AlarmControl"

// Full method names of the control service.
const (
	ScheduleNextMethod = "/" + ServiceName + "/ScheduleNext"
	ScheduleAtMethod   = "/" + ServiceName + "/ScheduleAt"
	CancelMethod       = "/" + ServiceName + "/Cancel"
	FireMethod         = "/" + ServiceName + "/Fire"
	SnoozeMethod       = "/" + ServiceName + "/Snooze"
	DismissMethod      = "/" + ServiceName + "/Dismiss"
	SetEnabledMethod   = "/" + ServiceName + "/SetEnabled"
	DeleteMethod       = "/" + ServiceName + "/Delete"
)

// ControlServer is the server API of the control service.
type ControlServer interface {
	ScheduleNext(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ScheduleAt(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	Cancel(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error)
	Fire(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error)
	Snooze(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error)
	Dismiss(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error)
	SetEnabled(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Delete(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error)
}

// RegisterControlServer registers srv with the gRPC server.
func RegisterControlServer(registrar grpc.ServiceRegistrar, srv ControlServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

// serviceDesc is written by hand over well-known types, so it has no .proto
// source to name in Metadata.
//
//nolint:gochecknoglobals // gRPC service descriptors are package-level by convention.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ScheduleNext", Handler: unaryHandler(ScheduleNextMethod, ControlServer.ScheduleNext)},
		{MethodName: "ScheduleAt", Handler: unaryHandler(ScheduleAtMethod, ControlServer.ScheduleAt)},
		{MethodName: "Cancel", Handler: unaryHandler(CancelMethod, ControlServer.Cancel)},
		{MethodName: "Fire", Handler: unaryHandler(FireMethod, ControlServer.Fire)},
		{MethodName: "Snooze", Handler: unaryHandler(SnoozeMethod, ControlServer.Snooze)},
		{MethodName: "Dismiss", Handler: unaryHandler(DismissMethod, ControlServer.Dismiss)},
		{MethodName: "SetEnabled", Handler: unaryHandler(SetEnabledMethod, ControlServer.SetEnabled)},
		{MethodName: "Delete", Handler: unaryHandler(DeleteMethod, ControlServer.Delete)},
	},
	Streams: []grpc.StreamDesc{},
}

// unaryHandler adapts a ControlServer method into a grpc.MethodHandler,
// running the server interceptor chain when one is installed.
func unaryHandler[Req, Resp any](
	fullMethod string,
	call func(ControlServer, context.Context, *Req) (Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(ControlServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(*Req)

			return call(server, ctx, typed)
		})
	}
}
