package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "wealthnest.vault.v1.VaultLedgerService"

// VaultLedgerServiceServer is the server API. Every RPC takes and returns a
// google.protobuf.Struct with snake_case fields and money as decimal strings.
type VaultLedgerServiceServer interface {
	OpenAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPensionTargetYear(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOverview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reconcile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Deposit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Withdraw(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WithdrawPensionFull(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyParkingIncentive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TransferToUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TransferBetweenOwnVaults(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AllocateToGoal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateGoal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateGoal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteGoal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListGoals(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(VaultLedgerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// VaultLedgerServiceDesc describes the service for grpc.Server.RegisterService
var VaultLedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultLedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("OpenAccount", VaultLedgerServiceServer.OpenAccount),
		unaryHandler("SetPensionTargetYear", VaultLedgerServiceServer.SetPensionTargetYear),
		unaryHandler("GetOverview", VaultLedgerServiceServer.GetOverview),
		unaryHandler("ListTransactions", VaultLedgerServiceServer.ListTransactions),
		unaryHandler("Reconcile", VaultLedgerServiceServer.Reconcile),
		unaryHandler("Deposit", VaultLedgerServiceServer.Deposit),
		unaryHandler("Withdraw", VaultLedgerServiceServer.Withdraw),
		unaryHandler("WithdrawPensionFull", VaultLedgerServiceServer.WithdrawPensionFull),
		unaryHandler("ApplyParkingIncentive", VaultLedgerServiceServer.ApplyParkingIncentive),
		unaryHandler("TransferToUser", VaultLedgerServiceServer.TransferToUser),
		unaryHandler("TransferBetweenOwnVaults", VaultLedgerServiceServer.TransferBetweenOwnVaults),
		unaryHandler("AllocateToGoal", VaultLedgerServiceServer.AllocateToGoal),
		unaryHandler("CreateGoal", VaultLedgerServiceServer.CreateGoal),
		unaryHandler("UpdateGoal", VaultLedgerServiceServer.UpdateGoal),
		unaryHandler("DeleteGoal", VaultLedgerServiceServer.DeleteGoal),
		unaryHandler("ListGoals", VaultLedgerServiceServer.ListGoals),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wealthnest/vault/v1/vault_ledger.proto",
}

// RegisterVaultLedgerServiceServer registers srv on s
func RegisterVaultLedgerServiceServer(s grpc.ServiceRegistrar, srv VaultLedgerServiceServer) {
	s.RegisterService(&VaultLedgerServiceDesc, srv)
}

// FullMethod returns the /service/method path of an RPC
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VaultLedgerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(VaultLedgerServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls VaultLedgerService over any client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client for the service
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with the given fields and returns the response struct
func (c *Client) Call(ctx context.Context, method string, fields map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// NewGRPCServer builds a grpc.Server with the auth interceptor, the ledger
// service, and server reflection registered
func NewGRPCServer(srv VaultLedgerServiceServer, jwtSecret []byte, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.UnaryInterceptor(AuthInterceptor(jwtSecret))}, opts...)
	server := grpc.NewServer(opts...)
	RegisterVaultLedgerServiceServer(server, srv)
	reflection.Register(server)
	return server
}
