// Package storagerpc gRPC service for batched contract storage queries.
//
// Messages are protobuf well-known Struct values (see message.go), so no generated code is needed.
package storagerpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName       = "kvschema.storage.v1.Storage"
	queryFullMethod   = "/" + ServiceName + "/Query"
	serviceDescSource = "storage.proto"
)

// StorageServer is the server API for the Storage service
type StorageServer interface {
	Query(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedStorageServer can be embedded to have forward compatible implementations
type UnimplementedStorageServer struct{}

func (UnimplementedStorageServer) Query(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Query not implemented")
}

func RegisterStorageServer(s grpc.ServiceRegistrar, srv StorageServer) {
	s.RegisterService(&Storage_ServiceDesc, srv)
}

// StorageClient is the client API for the Storage service
type StorageClient interface {
	Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type storageClient struct{ cc grpc.ClientConnInterface }

func NewStorageClient(cc grpc.ClientConnInterface) StorageClient { return &storageClient{cc: cc} }

func (c *storageClient) Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, queryFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Storage_Query_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorageServer).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: queryFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StorageServer).Query(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Storage_ServiceDesc is the grpc.ServiceDesc for the Storage service
var Storage_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StorageServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Query", Handler: _Storage_Query_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: serviceDescSource,
}
