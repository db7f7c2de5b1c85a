package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "agecare.appointments.v1.AppointmentsService"

const (
	methodCreateAppointment = "/" + ServiceName + "/CreateAppointment"
	methodUpdateAppointment = "/" + ServiceName + "/UpdateAppointment"
	methodDeleteAppointment = "/" + ServiceName + "/DeleteAppointment"
	methodGetAppointment    = "/" + ServiceName + "/GetAppointment"
)

// AppointmentsServiceServer is served over protobuf well-known types so callers need no
// generated stubs. Appointment payloads travel as Struct values with camelCase keys.
type AppointmentsServiceServer interface {
	CreateAppointment(ctx context.Context, req *structpb.Struct) (*wrapperspb.Int64Value, error)
	UpdateAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteAppointment(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error)
	GetAppointment(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error)
}

func RegisterAppointmentsServiceServer(s grpc.ServiceRegistrar, srv AppointmentsServiceServer) {
	s.RegisterService(&appointmentsServiceDesc, srv)
}

var appointmentsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AppointmentsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAppointment", Handler: createAppointmentHandler},
		{MethodName: "UpdateAppointment", Handler: updateAppointmentHandler},
		{MethodName: "DeleteAppointment", Handler: deleteAppointmentHandler},
		{MethodName: "GetAppointment", Handler: getAppointmentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agecare/appointments/v1/appointments.proto",
}

func createAppointmentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AppointmentsServiceServer).CreateAppointment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCreateAppointment}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AppointmentsServiceServer).CreateAppointment(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func updateAppointmentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AppointmentsServiceServer).UpdateAppointment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodUpdateAppointment}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AppointmentsServiceServer).UpdateAppointment(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteAppointmentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AppointmentsServiceServer).DeleteAppointment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDeleteAppointment}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AppointmentsServiceServer).DeleteAppointment(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func getAppointmentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AppointmentsServiceServer).GetAppointment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetAppointment}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AppointmentsServiceServer).GetAppointment(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// AppointmentsServiceClient calls the service over an existing connection.
type AppointmentsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAppointmentsServiceClient(cc grpc.ClientConnInterface) *AppointmentsServiceClient {
	return &AppointmentsServiceClient{cc: cc}
}

func (c *AppointmentsServiceClient) CreateAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, methodCreateAppointment, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AppointmentsServiceClient) UpdateAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodUpdateAppointment, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AppointmentsServiceClient) DeleteAppointment(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, methodDeleteAppointment, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AppointmentsServiceClient) GetAppointment(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetAppointment, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
