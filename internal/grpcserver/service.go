package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// ManifestServiceServer is what serviceDesc dispatches to.
type ManifestServiceServer interface {
	Assemble(context.Context, *AssembleRequest) (*AssembleResponse, error)
	Import(context.Context, *ImportRequest) (*ImportResponse, error)
	GetManifest(context.Context, *GetManifestRequest) (*GetManifestResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ManifestServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Assemble", Handler: assembleHandler},
		{MethodName: "Import", Handler: importHandler},
		{MethodName: "GetManifest", Handler: getManifestHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "iiifhub/manifest_service",
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func assembleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AssembleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManifestServiceServer).Assemble(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Assemble")}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ManifestServiceServer).Assemble(ctx, req.(*AssembleRequest))
	})
}

func importHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ImportRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManifestServiceServer).Import(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Import")}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ManifestServiceServer).Import(ctx, req.(*ImportRequest))
	})
}

func getManifestHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetManifestRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManifestServiceServer).GetManifest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("GetManifest")}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ManifestServiceServer).GetManifest(ctx, req.(*GetManifestRequest))
	})
}
