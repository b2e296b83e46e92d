// Package admin is the operator API of the relay: external event injection,
// stats, presence and history, served over gRPC with a JSON codec.
package admin

import (
	"chat-relay/observability"
	"context"

	"google.golang.org/grpc"
)

const serviceName = "chatrelay.admin.v1.AdminService"

const (
	AdminService_Emit_FullMethodName     = "/" + serviceName + "/Emit"
	AdminService_Stats_FullMethodName    = "/" + serviceName + "/Stats"
	AdminService_Presence_FullMethodName = "/" + serviceName + "/Presence"
	AdminService_History_FullMethodName  = "/" + serviceName + "/History"
)

type AdminServiceServer interface {
	Emit(context.Context, *EmitRequest) (*EmitResponse, error)
	Stats(context.Context, *StatsRequest) (*observability.Stats, error)
	Presence(context.Context, *PresenceRequest) (*PresenceResponse, error)
	History(context.Context, *HistoryRequest) (*HistoryResponse, error)
}

// unaryHandler adapts a typed method to the grpc.MethodHandler shape.
func unaryHandler[Req, Resp any](fullMethod string, call func(AdminServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AdminServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AdminServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AdminService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Emit",
			Handler:    unaryHandler(AdminService_Emit_FullMethodName, AdminServiceServer.Emit),
		},
		{
			MethodName: "Stats",
			Handler:    unaryHandler(AdminService_Stats_FullMethodName, AdminServiceServer.Stats),
		},
		{
			MethodName: "Presence",
			Handler:    unaryHandler(AdminService_Presence_FullMethodName, AdminServiceServer.Presence),
		},
		{
			MethodName: "History",
			Handler:    unaryHandler(AdminService_History_FullMethodName, AdminServiceServer.History),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chatrelay/admin/v1/admin.json",
}

func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminService_ServiceDesc, srv)
}
