package server

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "biddocs.v1.Ingest"

// IngestServer is the server API for the Ingest service.
type IngestServer interface {
	Parse(context.Context, *ParseRequest) (*ParseResponse, error)
	Prepare(context.Context, *PrepareRequest) (*PrepareResponse, error)
	Estimate(context.Context, *EstimateRequest) (*EstimateResponse, error)
	ListStandards(context.Context, *ListStandardsRequest) (*ListStandardsResponse, error)
	AddStandard(context.Context, *AddStandardRequest) (*AddStandardResponse, error)
}

// IngestServiceDesc describes the Ingest service for grpc.Server.RegisterService.
var IngestServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*IngestServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Parse", Handler: unary("Parse", IngestServer.Parse)},
		{MethodName: "Prepare", Handler: unary("Prepare", IngestServer.Prepare)},
		{MethodName: "Estimate", Handler: unary("Estimate", IngestServer.Estimate)},
		{MethodName: "ListStandards", Handler: unary("ListStandards", IngestServer.ListStandards)},
		{MethodName: "AddStandard", Handler: unary("AddStandard", IngestServer.AddStandard)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "biddocs/v1/ingest",
}

func RegisterIngestServer(s grpc.ServiceRegistrar, srv IngestServer) {
	s.RegisterService(&IngestServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(IngestServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + serviceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IngestServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IngestServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// IngestClient is the client API for the Ingest service.
type IngestClient struct {
	cc grpc.ClientConnInterface
}

func NewIngestClient(cc grpc.ClientConnInterface) *IngestClient {
	return &IngestClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IngestClient) Parse(ctx context.Context, in *ParseRequest, opts ...grpc.CallOption) (*ParseResponse, error) {
	return invoke[ParseResponse](ctx, c.cc, "Parse", in, opts)
}

func (c *IngestClient) Prepare(ctx context.Context, in *PrepareRequest, opts ...grpc.CallOption) (*PrepareResponse, error) {
	return invoke[PrepareResponse](ctx, c.cc, "Prepare", in, opts)
}

func (c *IngestClient) Estimate(ctx context.Context, in *EstimateRequest, opts ...grpc.CallOption) (*EstimateResponse, error) {
	return invoke[EstimateResponse](ctx, c.cc, "Estimate", in, opts)
}

func (c *IngestClient) ListStandards(ctx context.Context, in *ListStandardsRequest, opts ...grpc.CallOption) (*ListStandardsResponse, error) {
	return invoke[ListStandardsResponse](ctx, c.cc, "ListStandards", in, opts)
}

func (c *IngestClient) AddStandard(ctx context.Context, in *AddStandardRequest, opts ...grpc.CallOption) (*AddStandardResponse, error) {
	return invoke[AddStandardResponse](ctx, c.cc, "AddStandard", in, opts)
}
